package catalog

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/config"
	"github.com/pixelbay/marketplace/internal/models"
	"github.com/pixelbay/marketplace/internal/service/rating"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return &Engine{DB: db, Rating: &rating.Aggregator{DB: db}}, db
}

func seedStore(t *testing.T, db *gorm.DB, username string) models.Store {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: models.RoleSeller}
	require.NoError(t, db.Create(&user).Error)
	store := models.Store{UserID: user.ID, Name: username + "'s store", Description: "test store"}
	require.NoError(t, db.Create(&store).Error)
	return store
}

func seedAsset(t *testing.T, db *gorm.DB, storeID uint, name string, price float64) models.Asset {
	t.Helper()
	a := models.Asset{
		StoreID:       storeID,
		Category:      "3D Models",
		ProductName:   name,
		Price:         price,
		FileSize:      12.5,
		LatestVersion: "1.0",
		Description:   "an asset",
		Keywords:      []string{"test"},
		ZipFile:       "https://blobs.example.com/a.zip",
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"Asset", "asset", "assets", "Assets"} {
		k, err := ParseKind(in)
		require.NoError(t, err)
		require.Equal(t, KindAsset, k)
	}

	_, err := ParseKind("bundle")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestListFreePriceFilter(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")

	seedAsset(t, db, store.ID, "free one", 0)
	seedAsset(t, db, store.ID, "free two", 0)
	seedAsset(t, db, store.ID, "paid", 25)

	page, err := e.List(context.Background(), KindAsset, ListOptions{Price: PriceFree})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.TotalItems)
	for _, item := range page.Items {
		require.Zero(t, item.Price)
	}
}

func TestListPriceBuckets(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")

	seedAsset(t, db, store.ID, "cheap", 5)
	seedAsset(t, db, store.ID, "mid", 15)
	seedAsset(t, db, store.ID, "dear", 45)

	page, err := e.List(context.Background(), KindAsset, ListOptions{Price: PriceUnder10})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.TotalItems)

	page, err = e.List(context.Background(), KindAsset, ListOptions{Price: PriceUnder20})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.TotalItems)

	page, err = e.List(context.Background(), KindAsset, ListOptions{Price: PriceUnder50})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.TotalItems)
}

func TestListSortByPrice(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")

	seedAsset(t, db, store.ID, "b", 30)
	seedAsset(t, db, store.ID, "a", 10)
	seedAsset(t, db, store.ID, "c", 20)

	page, err := e.List(context.Background(), KindAsset, ListOptions{Sort: SortPriceLowToHigh})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	for i := 1; i < len(page.Items); i++ {
		require.GreaterOrEqual(t, page.Items[i].Price, page.Items[i-1].Price)
	}

	page, err = e.List(context.Background(), KindAsset, ListOptions{Sort: SortPriceHighToLow})
	require.NoError(t, err)
	for i := 1; i < len(page.Items); i++ {
		require.LessOrEqual(t, page.Items[i].Price, page.Items[i-1].Price)
	}
}

func TestListPagination(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")

	for i := 0; i < 7; i++ {
		seedAsset(t, db, store.ID, "asset", float64(i))
	}

	page, err := e.List(context.Background(), KindAsset, ListOptions{Page: 1, Limit: 3})
	require.NoError(t, err)
	require.Equal(t, int64(7), page.TotalItems)
	require.Equal(t, int64(3), page.TotalPages)
	require.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Items, 3)

	page, err = e.List(context.Background(), KindAsset, ListOptions{Page: 3, Limit: 3})
	require.NoError(t, err)
	require.Equal(t, 3, page.CurrentPage)
	require.Len(t, page.Items, 1)
}

func TestListEmptyResult(t *testing.T) {
	e, _ := newTestEngine(t)

	page, err := e.List(context.Background(), KindGame, ListOptions{Category: "Racing"})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Zero(t, page.TotalItems)
	require.Zero(t, page.TotalPages)
}

func TestListJoinsStoreAndRatings(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")
	asset := seedAsset(t, db, store.ID, "rated", 10)

	for i, r := range []int{4, 5} {
		require.NoError(t, db.Create(&models.Review{
			UserID:   uint(100 + i),
			ItemID:   asset.ID,
			ItemType: "asset",
			Rating:   r,
		}).Error)
	}

	page, err := e.List(context.Background(), KindAsset, ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, store.Name, page.Items[0].StoreName)
	require.Equal(t, 4.5, page.Items[0].RatingAverage)
	require.Equal(t, int64(2), page.Items[0].TotalRating)
}

func seedGig(t *testing.T, db *gorm.DB, storeID uint, name string, basic, standard, premium float64) models.Gig {
	t.Helper()
	g := models.Gig{
		StoreID:     storeID,
		Category:    "Programming & Tech",
		ProductName: name,
		Description: "a gig",
		Keywords:    []string{"test"},
		Packages: []models.GigPackage{
			{Name: models.PackageBasic, Price: basic, Services: "basic work"},
			{Name: models.PackageStandard, Price: standard, Services: "standard work"},
			{Name: models.PackagePremium, Price: premium, Services: "premium work"},
		},
	}
	require.NoError(t, db.Create(&g).Error)
	return g
}

func TestListGigsUsesBasicPackagePrice(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")

	seedGig(t, db, store.ID, "pricey", 40, 80, 120)
	seedGig(t, db, store.ID, "budget", 5, 50, 100)

	page, err := e.List(context.Background(), KindGig, ListOptions{Price: PriceUnder10})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.TotalItems)
	require.Equal(t, "budget", page.Items[0].ProductName)
	require.Equal(t, 5.0, page.Items[0].Price)

	page, err = e.List(context.Background(), KindGig, ListOptions{Sort: SortPriceLowToHigh})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, "budget", page.Items[0].ProductName)
	require.Equal(t, "pricey", page.Items[1].ProductName)
}

func TestDetail(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")
	asset := seedAsset(t, db, store.ID, "detailed", 10)

	detail, err := e.Detail(context.Background(), KindAsset, asset.ID)
	require.NoError(t, err)
	require.Equal(t, store.ID, detail.Store.ID)
	require.Zero(t, detail.TotalRating)

	_, err = e.Detail(context.Background(), KindAsset, 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSearchKeywordIsolation(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")

	a := seedAsset(t, db, store.ID, "plain asset", 10)
	a.Keywords = []string{"voxelizer", "mesh"}
	require.NoError(t, db.Save(&a).Error)

	seedGig(t, db, store.ID, "unrelated gig", 10, 20, 30)
	require.NoError(t, db.Create(&models.Game{
		StoreID:         store.ID,
		Category:        "Puzzle",
		ProductName:     "unrelated game",
		Price:           1,
		FileSize:        100,
		LatestVersion:   "1.0",
		Description:     "a game",
		TechnicalDetail: "none",
		Platform:        "PC",
	}).Error)

	res, err := e.Search(context.Background(), "voxelizer")
	require.NoError(t, err)
	require.Len(t, res.Assets, 1)
	require.Equal(t, a.ID, res.Assets[0].ID)
	require.Empty(t, res.Gigs)
	require.Empty(t, res.Games)
}

func TestItemExists(t *testing.T) {
	e, db := newTestEngine(t)
	store := seedStore(t, db, "seller")
	asset := seedAsset(t, db, store.ID, "exists", 10)

	ok, err := e.ItemExists(context.Background(), KindAsset, asset.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.ItemExists(context.Background(), KindAsset, 12345)
	require.NoError(t, err)
	require.False(t, ok)
}
