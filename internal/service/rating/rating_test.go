package rating

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/config"
	"github.com/pixelbay/marketplace/internal/models"
)

func newTestAggregator(t *testing.T) (*Aggregator, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return &Aggregator{DB: db}, db
}

func TestStatsNoReviews(t *testing.T) {
	a, _ := newTestAggregator(t)

	stats, err := a.Stats(context.Background(), 42, "asset")
	require.NoError(t, err)
	require.Zero(t, stats.RatingAverage)
	require.Zero(t, stats.TotalRating)
}

func TestStatsRounding(t *testing.T) {
	a, db := newTestAggregator(t)

	// 5, 4, 4 averages to 4.333..., rounded to 4.3.
	for i, r := range []int{5, 4, 4} {
		require.NoError(t, db.Create(&models.Review{
			UserID:   uint(i + 1),
			ItemID:   7,
			ItemType: "game",
			Rating:   r,
		}).Error)
	}

	stats, err := a.Stats(context.Background(), 7, "game")
	require.NoError(t, err)
	require.Equal(t, 4.3, stats.RatingAverage)
	require.Equal(t, int64(3), stats.TotalRating)
}

func TestStatsScopedByType(t *testing.T) {
	a, db := newTestAggregator(t)

	require.NoError(t, db.Create(&models.Review{UserID: 1, ItemID: 7, ItemType: "asset", Rating: 5}).Error)
	require.NoError(t, db.Create(&models.Review{UserID: 1, ItemID: 7, ItemType: "game", Rating: 1}).Error)

	stats, err := a.Stats(context.Background(), 7, "asset")
	require.NoError(t, err)
	require.Equal(t, 5.0, stats.RatingAverage)
	require.Equal(t, int64(1), stats.TotalRating)
}

func TestRefreshPersistsSnapshot(t *testing.T) {
	a, db := newTestAggregator(t)

	asset := models.Asset{
		StoreID:       1,
		Category:      "3D Models",
		ProductName:   "rated asset",
		Price:         10,
		FileSize:      1,
		LatestVersion: "1.0",
		Description:   "d",
		ZipFile:       "z",
	}
	require.NoError(t, db.Create(&asset).Error)

	for i, r := range []int{3, 4} {
		require.NoError(t, db.Create(&models.Review{
			UserID:   uint(i + 1),
			ItemID:   asset.ID,
			ItemType: "asset",
			Rating:   r,
		}).Error)
	}

	stats, err := a.Refresh(context.Background(), asset.ID, "asset")
	require.NoError(t, err)
	require.Equal(t, 3.5, stats.RatingAverage)

	var reloaded models.Asset
	require.NoError(t, db.First(&reloaded, asset.ID).Error)
	require.Equal(t, 3.5, reloaded.RatingAverage)
	require.Equal(t, int64(2), reloaded.TotalRating)
}

func TestRefreshUnknownType(t *testing.T) {
	a, _ := newTestAggregator(t)

	_, err := a.Refresh(context.Background(), 1, "bundle")
	require.Error(t, err)
}
