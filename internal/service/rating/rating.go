package rating

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/models"
)

// Stats are derived from the review ledger: average rating rounded to one
// decimal place and the number of reviews.
type Stats struct {
	RatingAverage float64 `json:"ratingAverage"`
	TotalRating   int64   `json:"totalRating"`
}

type Aggregator struct {
	DB *gorm.DB
}

// Stats scans the reviews for (itemID, itemType). No reviews yields {0, 0}.
func (a *Aggregator) Stats(ctx context.Context, itemID uint, itemType string) (Stats, error) {
	var row struct {
		Avg float64
		Cnt int64
	}
	err := a.DB.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt").
		Where("item_id = ? AND item_type = ?", itemID, itemType).
		Scan(&row).Error
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		RatingAverage: math.Round(row.Avg*10) / 10,
		TotalRating:   row.Cnt,
	}, nil
}

// Refresh recomputes the stats and persists them onto the item row as a cached
// snapshot. The write is not atomic with a concurrent review insert, so the
// snapshot can lag behind the ledger.
func (a *Aggregator) Refresh(ctx context.Context, itemID uint, itemType string) (Stats, error) {
	stats, err := a.Stats(ctx, itemID, itemType)
	if err != nil {
		return Stats{}, err
	}

	var model interface{}
	switch itemType {
	case "asset":
		model = &models.Asset{}
	case "gig":
		model = &models.Gig{}
	case "game":
		model = &models.Game{}
	default:
		return Stats{}, fmt.Errorf("unknown item type %q", itemType)
	}

	err = a.DB.WithContext(ctx).
		Model(model).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"rating_average": stats.RatingAverage,
			"total_rating":   stats.TotalRating,
		}).Error
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}
