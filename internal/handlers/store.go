package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/blobstore"
	"github.com/pixelbay/marketplace/internal/jwtmiddleware"
	"github.com/pixelbay/marketplace/internal/models"
	"github.com/pixelbay/marketplace/internal/mykafka"
)

type StoreHandler struct {
	DB       *gorm.DB
	Uploader blobstore.Uploader
	Producer *mykafka.Producer
}

func (h *StoreHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicUserEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// uploadFormFile pushes one multipart file to the blob store and returns its
// URL. A missing field is not an error; the caller decides whether the file
// was required.
func uploadFormFile(c echo.Context, up blobstore.Uploader, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	if up == nil {
		return "", errors.New("file uploads are not configured")
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	hint := strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
	return up.Upload(c.Request().Context(), f, hint)
}

func uploadFormFiles(c echo.Context, up blobstore.Uploader, field string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if up == nil {
		return nil, errors.New("file uploads are not configured")
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		hint := strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
		url, err := up.Upload(c.Request().Context(), f, hint)
		f.Close()
		if err != nil {
			// Blobs uploaded before the failure stay behind; there is no
			// compensating delete.
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (h *StoreHandler) CreateStore(c echo.Context) error {
	userID := jwtmiddleware.UserID(c)

	name := c.FormValue("name")
	description := c.FormValue("description")
	if name == "" || description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "All fields are required")
	}

	var existing models.Store
	if err := h.DB.Where("user_id = ?", userID).First(&existing).Error; err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "User already has a store")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	image, err := uploadFormFile(c, h.Uploader, "image")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	store := models.Store{
		UserID:      userID,
		Name:        name,
		Description: description,
		Image:       image,
	}
	if err := h.DB.Create(&store).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "store_created",
		"userID":  userID,
		"storeID": store.ID,
		"name":    store.Name,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Store created successfully",
		"store":   store,
	})
}

func (h *StoreHandler) EditStore(c echo.Context) error {
	userID := jwtmiddleware.UserID(c)

	var store models.Store
	if err := h.DB.Where("user_id = ?", userID).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Store not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if name := c.FormValue("name"); name != "" {
		store.Name = name
	}
	if description := c.FormValue("description"); description != "" {
		store.Description = description
	}
	image, err := uploadFormFile(c, h.Uploader, "image")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if image != "" {
		store.Image = image
	}

	if err := h.DB.Save(&store).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "store_updated",
		"userID":  userID,
		"storeID": store.ID,
		"name":    store.Name,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Store updated successfully",
		"store":   store,
	})
}
