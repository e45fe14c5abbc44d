package catalog

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/models"
	"github.com/pixelbay/marketplace/internal/service/rating"
	"github.com/pixelbay/marketplace/internal/util"
)

const (
	SortPriceLowToHigh = "Price: Low to High"
	SortPriceHighToLow = "Price: High to Low"

	PriceFree    = "Free"
	PriceUnder10 = "Under £10"
	PriceUnder20 = "Under £20"
	PriceUnder50 = "Under £50"
)

// Engine answers catalog queries: filtered, sorted, paginated item pages
// joined with store names and derived rating stats.
type Engine struct {
	DB     *gorm.DB
	Rating *rating.Aggregator
}

type ListOptions struct {
	Category string
	Price    string
	Sort     string
	Page     int
	Limit    int
}

type ItemSummary struct {
	ID            uint      `json:"id"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	ProductName   string    `json:"productName"`
	Price         float64   `json:"price"`
	Discount      float64   `json:"discount"`
	Images        []string  `json:"images"`
	StoreID       uint      `json:"storeId"`
	StoreName     string    `json:"storeName"`
	RatingAverage float64   `json:"ratingAverage"`
	TotalRating   int64     `json:"totalRating"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Page struct {
	Items       []ItemSummary `json:"items"`
	TotalItems  int64         `json:"totalItems"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int64         `json:"totalPages"`
}

// priceCeiling maps a bucket label to its filter. An unknown label behaves
// like an absent one, mirroring how unknown sort keys fall through to the
// default ordering.
func priceCeiling(bucket string) (max float64, free, filtered bool) {
	switch bucket {
	case PriceFree:
		return 0, true, true
	case PriceUnder10:
		return 10, false, true
	case PriceUnder20:
		return 20, false, true
	case PriceUnder50:
		return 50, false, true
	}
	return 0, false, false
}

func applyPriceFilter(q *gorm.DB, col, bucket string) *gorm.DB {
	max, free, filtered := priceCeiling(bucket)
	if !filtered {
		return q
	}
	if free {
		return q.Where(col + " = 0")
	}
	return q.Where(col+" <= ?", max)
}

func orderExpr(priceCol, createdCol, sort string) string {
	switch sort {
	case SortPriceLowToHigh:
		return priceCol + " ASC"
	case SortPriceHighToLow:
		return priceCol + " DESC"
	}
	return createdCol + " DESC"
}

// List returns one page of item summaries for the given kind.
func (e *Engine) List(ctx context.Context, kind Kind, opts ListOptions) (*Page, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	offset, limit := util.Calculate(opts.Page, opts.Limit)

	switch kind {
	case KindAsset:
		return e.listAssets(ctx, opts, offset, limit)
	case KindGig:
		return e.listGigs(ctx, opts, offset, limit)
	case KindGame:
		return e.listGames(ctx, opts, offset, limit)
	}
	return nil, ErrUnknownKind
}

func (e *Engine) listAssets(ctx context.Context, opts ListOptions, offset, limit int) (*Page, error) {
	q := e.DB.WithContext(ctx).Model(&models.Asset{})
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}
	q = applyPriceFilter(q, "price", opts.Price)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Asset
	if err := q.Order(orderExpr("price", "created_at", opts.Sort)).
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}

	summaries := make([]ItemSummary, 0, len(items))
	for _, a := range items {
		summaries = append(summaries, ItemSummary{
			ID:          a.ID,
			Type:        string(KindAsset),
			Category:    a.Category,
			ProductName: a.ProductName,
			Price:       a.Price,
			Discount:    a.Discount,
			Images:      a.Images,
			StoreID:     a.StoreID,
			CreatedAt:   a.CreatedAt,
		})
	}

	if err := e.decorate(ctx, KindAsset, summaries); err != nil {
		return nil, err
	}
	return e.page(summaries, total, opts.Page, limit), nil
}

func (e *Engine) listGigs(ctx context.Context, opts ListOptions, offset, limit int) (*Page, error) {
	// A gig's headline price is its Basic package price.
	q := e.DB.WithContext(ctx).Model(&models.Gig{}).
		Select("gigs.*").
		Joins("JOIN gig_packages ON gig_packages.gig_id = gigs.id AND gig_packages.name = ?", models.PackageBasic)
	if opts.Category != "" {
		q = q.Where("gigs.category = ?", opts.Category)
	}
	q = applyPriceFilter(q, "gig_packages.price", opts.Price)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Gig
	if err := q.Order(orderExpr("gig_packages.price", "gigs.created_at", opts.Sort)).
		Offset(offset).Limit(limit).
		Preload("Packages").
		Find(&items).Error; err != nil {
		return nil, err
	}

	summaries := make([]ItemSummary, 0, len(items))
	for _, g := range items {
		summaries = append(summaries, ItemSummary{
			ID:          g.ID,
			Type:        string(KindGig),
			Category:    g.Category,
			ProductName: g.ProductName,
			Price:       basicPrice(g),
			Images:      g.Images,
			StoreID:     g.StoreID,
			CreatedAt:   g.CreatedAt,
		})
	}

	if err := e.decorate(ctx, KindGig, summaries); err != nil {
		return nil, err
	}
	return e.page(summaries, total, opts.Page, limit), nil
}

func (e *Engine) listGames(ctx context.Context, opts ListOptions, offset, limit int) (*Page, error) {
	q := e.DB.WithContext(ctx).Model(&models.Game{})
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}
	q = applyPriceFilter(q, "price", opts.Price)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Game
	if err := q.Order(orderExpr("price", "created_at", opts.Sort)).
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}

	summaries := make([]ItemSummary, 0, len(items))
	for _, g := range items {
		summaries = append(summaries, ItemSummary{
			ID:          g.ID,
			Type:        string(KindGame),
			Category:    g.Category,
			ProductName: g.ProductName,
			Price:       g.Price,
			Discount:    g.Discount,
			Images:      g.Images,
			StoreID:     g.StoreID,
			CreatedAt:   g.CreatedAt,
		})
	}

	if err := e.decorate(ctx, KindGame, summaries); err != nil {
		return nil, err
	}
	return e.page(summaries, total, opts.Page, limit), nil
}

// decorate joins store names and per-item rating stats onto the summaries.
// Stats come from a second query per item, matching the read path of the
// detail view.
func (e *Engine) decorate(ctx context.Context, kind Kind, summaries []ItemSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	storeIDs := make([]uint, 0, len(summaries))
	for _, s := range summaries {
		storeIDs = append(storeIDs, s.StoreID)
	}
	var stores []models.Store
	if err := e.DB.WithContext(ctx).Where("id IN ?", storeIDs).Find(&stores).Error; err != nil {
		return err
	}
	names := make(map[uint]string, len(stores))
	for _, s := range stores {
		names[s.ID] = s.Name
	}

	for i := range summaries {
		summaries[i].StoreName = names[summaries[i].StoreID]

		stats, err := e.Rating.Stats(ctx, summaries[i].ID, kind.ReviewType())
		if err != nil {
			return err
		}
		summaries[i].RatingAverage = stats.RatingAverage
		summaries[i].TotalRating = stats.TotalRating
	}
	return nil
}

func (e *Engine) page(items []ItemSummary, total int64, page, limit int) *Page {
	return &Page{
		Items:       items,
		TotalItems:  total,
		CurrentPage: page,
		TotalPages:  util.TotalPages(total, limit),
	}
}

func basicPrice(g models.Gig) float64 {
	for _, p := range g.Packages {
		if p.Name == models.PackageBasic {
			return p.Price
		}
	}
	return 0
}

// ItemDetail is an item joined with its store and freshly derived stats.
type ItemDetail struct {
	Item  interface{}   `json:"item"`
	Store *models.Store `json:"store"`
	rating.Stats
}

func (e *Engine) Detail(ctx context.Context, kind Kind, id uint) (*ItemDetail, error) {
	var (
		item    interface{}
		storeID uint
	)

	switch kind {
	case KindAsset:
		var a models.Asset
		if err := e.DB.WithContext(ctx).First(&a, id).Error; err != nil {
			return nil, err
		}
		item, storeID = a, a.StoreID
	case KindGig:
		var g models.Gig
		if err := e.DB.WithContext(ctx).Preload("Packages").First(&g, id).Error; err != nil {
			return nil, err
		}
		item, storeID = g, g.StoreID
	case KindGame:
		var g models.Game
		if err := e.DB.WithContext(ctx).First(&g, id).Error; err != nil {
			return nil, err
		}
		item, storeID = g, g.StoreID
	default:
		return nil, ErrUnknownKind
	}

	var store models.Store
	if err := e.DB.WithContext(ctx).First(&store, storeID).Error; err != nil {
		return nil, err
	}

	stats, err := e.Rating.Stats(ctx, id, kind.ReviewType())
	if err != nil {
		return nil, err
	}

	return &ItemDetail{Item: item, Store: &store, Stats: stats}, nil
}

// StoreItems lists one store's items of the given kind, newest first.
func (e *Engine) StoreItems(ctx context.Context, kind Kind, storeID uint) (interface{}, error) {
	switch kind {
	case KindAsset:
		var items []models.Asset
		err := e.DB.WithContext(ctx).Where("store_id = ?", storeID).Order("created_at DESC").Find(&items).Error
		return items, err
	case KindGig:
		var items []models.Gig
		err := e.DB.WithContext(ctx).Where("store_id = ?", storeID).Order("created_at DESC").Preload("Packages").Find(&items).Error
		return items, err
	case KindGame:
		var items []models.Game
		err := e.DB.WithContext(ctx).Where("store_id = ?", storeID).Order("created_at DESC").Find(&items).Error
		return items, err
	}
	return nil, ErrUnknownKind
}

// ItemExists is the referenced-item check used by reviews and the cart.
func (e *Engine) ItemExists(ctx context.Context, kind Kind, id uint) (bool, error) {
	var count int64
	var model interface{}
	switch kind {
	case KindAsset:
		model = &models.Asset{}
	case KindGig:
		model = &models.Gig{}
	case KindGame:
		model = &models.Game{}
	default:
		return false, ErrUnknownKind
	}
	if err := e.DB.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SearchResult groups substring matches by kind.
type SearchResult struct {
	Assets []models.Asset `json:"assets"`
	Gigs   []models.Gig   `json:"gigs"`
	Games  []models.Game  `json:"games"`
}

// Search does a case-insensitive substring scan over name, description and
// keywords of every kind. There is no persistent index behind it.
func (e *Engine) Search(ctx context.Context, query string) (*SearchResult, error) {
	pat := "%" + strings.ToLower(query) + "%"
	cond := "LOWER(product_name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(keywords) LIKE ?"

	res := &SearchResult{
		Assets: []models.Asset{},
		Gigs:   []models.Gig{},
		Games:  []models.Game{},
	}

	if err := e.DB.WithContext(ctx).Where(cond, pat, pat, pat).Find(&res.Assets).Error; err != nil {
		return nil, err
	}
	if err := e.DB.WithContext(ctx).Where(cond, pat, pat, pat).Preload("Packages").Find(&res.Gigs).Error; err != nil {
		return nil, err
	}
	if err := e.DB.WithContext(ctx).Where(cond, pat, pat, pat).Find(&res.Games).Error; err != nil {
		return nil, err
	}
	return res, nil
}
