package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/blobstore"
	"github.com/pixelbay/marketplace/internal/jwtmiddleware"
	"github.com/pixelbay/marketplace/internal/logging"
	"github.com/pixelbay/marketplace/internal/models"
	"github.com/pixelbay/marketplace/internal/mykafka"
	"github.com/pixelbay/marketplace/internal/service/catalog"
	"github.com/pixelbay/marketplace/internal/service/search"
	"github.com/pixelbay/marketplace/internal/util"
)

type CatalogHandler struct {
	DB       *gorm.DB
	Engine   *catalog.Engine
	Uploader blobstore.Uploader
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

func (h *CatalogHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicCatalogEvents, fmt.Sprint(event["itemID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CatalogHandler) index(c echo.Context, doc search.ItemDoc) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexItem(ctx, h.ES, h.ESIndex, doc); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es index failed", "error", err)
	}
}

// ownStore resolves the authenticated user's store; items can only be listed
// under the seller's own storefront.
func (h *CatalogHandler) ownStore(c echo.Context) (*models.Store, error) {
	userID := jwtmiddleware.UserID(c)
	var store models.Store
	if err := h.DB.Where("user_id = ?", userID).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Store not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return &store, nil
}

func formFloat(c echo.Context, field string) float64 {
	v, _ := strconv.ParseFloat(c.FormValue(field), 64)
	return v
}

func formBool(c echo.Context, field string) bool {
	v, _ := strconv.ParseBool(c.FormValue(field))
	return v
}

func formKeywords(c echo.Context) []string {
	form, err := c.MultipartForm()
	if err == nil {
		if vals := form.Value["keywords"]; len(vals) > 1 {
			return vals
		}
	}
	raw := c.FormValue("keywords")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *CatalogHandler) CreateAsset(c echo.Context) error {
	store, err := h.ownStore(c)
	if err != nil {
		return err
	}

	asset := models.Asset{
		StoreID:       store.ID,
		Category:      c.FormValue("category"),
		YoutubeLink:   c.FormValue("youtubeLink"),
		ProductName:   c.FormValue("productName"),
		Price:         formFloat(c, "price"),
		Discount:      formFloat(c, "discount"),
		FileSize:      formFloat(c, "fileSize"),
		LatestVersion: c.FormValue("latestVersion"),
		Description:   c.FormValue("description"),
		Keywords:      formKeywords(c),
	}

	if asset.ProductName == "" || asset.Description == "" || asset.LatestVersion == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "productName, description and latestVersion are required")
	}
	if len(asset.Keywords) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Keywords are required")
	}
	if !catalog.KindAsset.ValidCategory(asset.Category) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid asset category")
	}

	images, err := uploadFormFiles(c, h.Uploader, "images")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	asset.Images = images

	zipURL, err := uploadFormFile(c, h.Uploader, "zipFile")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if zipURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ZIP file is required")
	}
	asset.ZipFile = zipURL

	if err := h.DB.Create(&asset).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.index(c, search.ItemDoc{
		ID:          asset.ID,
		Type:        string(catalog.KindAsset),
		Category:    asset.Category,
		ProductName: asset.ProductName,
		Description: asset.Description,
		Keywords:    asset.Keywords,
		Price:       asset.Price,
		StoreID:     asset.StoreID,
	})
	h.publish(c, map[string]any{
		"type":   "asset_created",
		"itemID": asset.ID,
		"name":   asset.ProductName,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Asset created successfully",
		"asset":   asset,
	})
}

func (h *CatalogHandler) CreateGig(c echo.Context) error {
	store, err := h.ownStore(c)
	if err != nil {
		return err
	}

	gig := models.Gig{
		StoreID:     store.ID,
		Category:    c.FormValue("category"),
		YoutubeLink: c.FormValue("youtubeLink"),
		ProductName: c.FormValue("productName"),
		Description: c.FormValue("description"),
		Keywords:    formKeywords(c),
	}

	if gig.ProductName == "" || gig.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "productName and description are required")
	}
	if len(gig.Keywords) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Keywords are required")
	}
	if !catalog.KindGig.ValidCategory(gig.Category) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid gig category")
	}

	packages, err := parsePackages(c.FormValue("packages"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	gig.Packages = packages

	images, err := uploadFormFiles(c, h.Uploader, "images")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	gig.Images = images

	if err := h.DB.Create(&gig).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var basic float64
	for _, p := range gig.Packages {
		if p.Name == models.PackageBasic {
			basic = p.Price
		}
	}
	h.index(c, search.ItemDoc{
		ID:          gig.ID,
		Type:        string(catalog.KindGig),
		Category:    gig.Category,
		ProductName: gig.ProductName,
		Description: gig.Description,
		Keywords:    gig.Keywords,
		Price:       basic,
		StoreID:     gig.StoreID,
	})
	h.publish(c, map[string]any{
		"type":   "gig_created",
		"itemID": gig.ID,
		"name":   gig.ProductName,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Gig created successfully",
		"gig":     gig,
	})
}

// parsePackages decodes the packages form field and enforces the three-tier
// rule: exactly one Basic, one Standard and one Premium package.
func parsePackages(raw string) ([]models.GigPackage, error) {
	if raw == "" {
		return nil, errors.New("Packages are required")
	}

	var in []struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Services string  `json:"services"`
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, errors.New("Packages must be a JSON array")
	}
	if len(in) != 3 {
		return nil, errors.New("A gig must have exactly 3 packages")
	}

	seen := map[string]bool{}
	out := make([]models.GigPackage, 0, 3)
	for _, p := range in {
		switch p.Name {
		case models.PackageBasic, models.PackageStandard, models.PackagePremium:
		default:
			return nil, fmt.Errorf("Invalid package name %q", p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("Duplicate package %q", p.Name)
		}
		seen[p.Name] = true
		if p.Services == "" {
			return nil, errors.New("Package services are required")
		}
		out = append(out, models.GigPackage{
			Name:     p.Name,
			Price:    p.Price,
			Services: p.Services,
		})
	}
	return out, nil
}

func (h *CatalogHandler) CreateGame(c echo.Context) error {
	store, err := h.ownStore(c)
	if err != nil {
		return err
	}

	game := models.Game{
		StoreID:         store.ID,
		Category:        c.FormValue("category"),
		YoutubeLink:     c.FormValue("youtubeLink"),
		ProductName:     c.FormValue("productName"),
		Price:           formFloat(c, "price"),
		Discount:        formFloat(c, "discount"),
		FileSize:        formFloat(c, "fileSize"),
		LatestVersion:   c.FormValue("latestVersion"),
		Description:     c.FormValue("description"),
		TechnicalDetail: c.FormValue("technicalDetail"),
		Keywords:        formKeywords(c),
		EarlyAccess:     formBool(c, "earlyAccess"),
		Platform:        c.FormValue("platform"),
		MobileType:      c.FormValue("mobileType"),
	}

	if game.ProductName == "" || game.Description == "" || game.TechnicalDetail == "" || game.Platform == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "productName, description, technicalDetail and platform are required")
	}
	if !catalog.KindGame.ValidCategory(game.Category) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid game category")
	}
	if game.MobileType != "" && game.Platform != "Mobile" {
		return echo.NewHTTPError(http.StatusBadRequest, "mobileType is only valid for the Mobile platform")
	}

	images, err := uploadFormFiles(c, h.Uploader, "images")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	game.Images = images

	demoURL, err := uploadFormFile(c, h.Uploader, "webglDemoZip")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	game.WebGLDemoZip = demoURL

	if err := h.DB.Create(&game).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.index(c, search.ItemDoc{
		ID:          game.ID,
		Type:        string(catalog.KindGame),
		Category:    game.Category,
		ProductName: game.ProductName,
		Description: game.Description,
		Keywords:    game.Keywords,
		Price:       game.Price,
		StoreID:     game.StoreID,
	})
	h.publish(c, map[string]any{
		"type":   "game_created",
		"itemID": game.ID,
		"name":   game.ProductName,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Game created successfully",
		"game":    game,
	})
}

func listOptions(c echo.Context) catalog.ListOptions {
	return catalog.ListOptions{
		Category: c.QueryParam("category"),
		Price:    c.QueryParam("price"),
		Sort:     c.QueryParam("sort"),
		Page:     util.ParseIntDefault(c.QueryParam("page"), 1),
		Limit:    util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	}
}

// ListKind serves the fixed-kind listing routes (/assets, /gigs, /games).
func (h *CatalogHandler) ListKind(kind catalog.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := h.Engine.List(c.Request().Context(), kind, listOptions(c))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, page)
	}
}

// ListByType serves /categories/:type and /categories/:type/:category.
func (h *CatalogHandler) ListByType(c echo.Context) error {
	kind, err := catalog.ParseKind(c.Param("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid item type")
	}

	opts := listOptions(c)
	if cat := c.Param("category"); cat != "" {
		if !kind.ValidCategory(cat) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid category for "+string(kind))
		}
		opts.Category = cat
	}

	page, err := h.Engine.List(c.Request().Context(), kind, opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CatalogHandler) StoreItems(kind catalog.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		storeID, err := strconv.Atoi(c.Param("storeId"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid store id")
		}

		var store models.Store
		if err := h.DB.First(&store, storeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Store not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		items, err := h.Engine.StoreItems(c.Request().Context(), kind, uint(storeID))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{
			"store": store,
			"items": items,
		})
	}
}

func (h *CatalogHandler) Detail(kind catalog.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid item id")
		}

		detail, err := h.Engine.Detail(c.Request().Context(), kind, uint(id))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, string(kind)+" not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, detail)
	}
}
