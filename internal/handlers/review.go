package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/jwtmiddleware"
	"github.com/pixelbay/marketplace/internal/models"
	"github.com/pixelbay/marketplace/internal/mykafka"
	"github.com/pixelbay/marketplace/internal/service/catalog"
	"github.com/pixelbay/marketplace/internal/service/rating"
	"github.com/pixelbay/marketplace/internal/util"
)

type ReviewHandler struct {
	DB       *gorm.DB
	Engine   *catalog.Engine
	Rating   *rating.Aggregator
	Producer *mykafka.Producer
}

func (h *ReviewHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicReviewEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	userID := jwtmiddleware.UserID(c)

	var req struct {
		ItemID   uint   `json:"itemId"`
		ItemType string `json:"itemType"`
		Rating   int    `json:"rating"`
		Comment  string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	kind, err := catalog.ParseReviewType(req.ItemType)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid item type")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "Rating must be between 1 and 5")
	}

	exists, err := h.Engine.ItemExists(c.Request().Context(), kind, req.ItemID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "Item not found")
	}

	// Pre-check for a friendly message; the composite unique index still
	// backs the rule under concurrent submissions.
	var existing models.Review
	err = h.DB.Where("user_id = ? AND item_id = ? AND item_type = ?", userID, req.ItemID, req.ItemType).
		First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "You have already reviewed this item")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	review := models.Review{
		UserID:   userID,
		ItemID:   req.ItemID,
		ItemType: req.ItemType,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		// Lost the race against another submission for the same item.
		return echo.NewHTTPError(http.StatusConflict, "You have already reviewed this item")
	}

	stats, err := h.Rating.Refresh(c.Request().Context(), req.ItemID, req.ItemType)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "review_created",
		"userID":   userID,
		"itemID":   req.ItemID,
		"itemType": req.ItemType,
		"rating":   req.Rating,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Review submitted successfully",
		"review":  review,
		"stats":   stats,
	})
}

type reviewView struct {
	models.Review
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
}

func (h *ReviewHandler) GetReviews(c echo.Context) error {
	itemType := c.Param("itemType")
	if _, err := catalog.ParseReviewType(itemType); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid item type")
	}
	itemID, err := strconv.Atoi(c.Param("itemId"))
	if err != nil || itemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid item id")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	var total int64
	if err := h.DB.Model(&models.Review{}).
		Where("item_id = ? AND item_type = ?", itemID, itemType).
		Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var reviews []models.Review
	if err := h.DB.Where("item_id = ? AND item_type = ?", itemID, itemType).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	userIDs := make([]uint, 0, len(reviews))
	for _, r := range reviews {
		userIDs = append(userIDs, r.UserID)
	}
	users := make(map[uint]models.User, len(userIDs))
	if len(userIDs) > 0 {
		var rows []models.User
		if err := h.DB.Where("id IN ?", userIDs).Find(&rows).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		for _, u := range rows {
			users[u.ID] = u
		}
	}

	views := make([]reviewView, 0, len(reviews))
	for _, r := range reviews {
		u := users[r.UserID]
		views = append(views, reviewView{
			Review:     r,
			Username:   u.Username,
			ProfilePic: u.ProfilePic,
		})
	}

	stats, err := h.Rating.Stats(c.Request().Context(), uint(itemID), itemType)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"reviews":     views,
		"stats":       stats,
		"totalItems":  total,
		"currentPage": page,
		"totalPages":  util.TotalPages(total, limit),
	})
}
