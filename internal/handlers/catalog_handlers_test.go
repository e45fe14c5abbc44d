package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/models"
	"github.com/pixelbay/marketplace/internal/mykafka"
	"github.com/pixelbay/marketplace/internal/service/catalog"
	"github.com/pixelbay/marketplace/internal/service/rating"
)

type stubUploader struct {
	uploads int
}

func (s *stubUploader) Upload(ctx context.Context, r io.Reader, formatHint string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.uploads++
	return fmt.Sprintf("https://blobs.example.com/%d-%s", s.uploads, formatHint), nil
}

func newCatalogHandler(db *gorm.DB, up *stubUploader) *CatalogHandler {
	return &CatalogHandler{
		DB:       db,
		Engine:   &catalog.Engine{DB: db, Rating: &rating.Aggregator{DB: db}},
		Uploader: up,
		Producer: &mykafka.Producer{},
	}
}

func seedSellerStore(t *testing.T, db *gorm.DB) (models.User, models.Store) {
	t.Helper()
	user := models.User{Username: "catalog_seller", Email: "catalog@example.com", PasswordHash: "x", Role: models.RoleSeller}
	require.NoError(t, db.Create(&user).Error)
	store := models.Store{UserID: user.ID, Name: "catalog store", Description: "d"}
	require.NoError(t, db.Create(&store).Error)
	return user, store
}

func doMultipartRequest(t *testing.T, e *echo.Echo, path string, fields map[string]string, files map[string]string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, filename := range files {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("file contents"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestParsePackages(t *testing.T) {
	valid := `[
		{"name":"Basic","price":10,"services":"one revision"},
		{"name":"Standard","price":20,"services":"three revisions"},
		{"name":"Premium","price":30,"services":"unlimited revisions"}
	]`
	pkgs, err := parsePackages(valid)
	require.NoError(t, err)
	require.Len(t, pkgs, 3)
	require.Equal(t, models.PackageBasic, pkgs[0].Name)
	require.Equal(t, 10.0, pkgs[0].Price)

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "nope"},
		{"too few", `[{"name":"Basic","price":10,"services":"s"}]`},
		{"bad tier", `[{"name":"Basic","price":10,"services":"s"},{"name":"Standard","price":20,"services":"s"},{"name":"Deluxe","price":30,"services":"s"}]`},
		{"duplicate tier", `[{"name":"Basic","price":10,"services":"s"},{"name":"Basic","price":20,"services":"s"},{"name":"Premium","price":30,"services":"s"}]`},
		{"missing services", `[{"name":"Basic","price":10,"services":""},{"name":"Standard","price":20,"services":"s"},{"name":"Premium","price":30,"services":"s"}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parsePackages(tc.raw)
			require.Error(t, err)
		})
	}
}

func TestCreateAsset(t *testing.T) {
	db := initTestDB(t)
	up := &stubUploader{}
	h := newCatalogHandler(db, up)
	e := echo.New()
	user, store := seedSellerStore(t, db)

	rec, c := doMultipartRequest(t, e, "/api/v1/upload-asset",
		map[string]string{
			"category":      "3D Models",
			"productName":   "low poly trees",
			"price":         "12.5",
			"fileSize":      "34",
			"latestVersion": "1.2",
			"description":   "a pack of trees",
			"keywords":      "trees, nature",
		},
		map[string]string{"zipFile": "trees.zip"},
	)
	c.Set("userID", user.ID)

	require.NoError(t, h.CreateAsset(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var asset models.Asset
	require.NoError(t, db.Where("product_name = ?", "low poly trees").First(&asset).Error)
	require.Equal(t, store.ID, asset.StoreID)
	require.Equal(t, []string{"trees", "nature"}, asset.Keywords)
	require.NotEmpty(t, asset.ZipFile)
	require.Equal(t, 1, up.uploads)
}

func TestCreateAssetValidation(t *testing.T) {
	db := initTestDB(t)
	h := newCatalogHandler(db, &stubUploader{})
	e := echo.New()
	user, _ := seedSellerStore(t, db)

	base := map[string]string{
		"category":      "3D Models",
		"productName":   "p",
		"price":         "1",
		"fileSize":      "1",
		"latestVersion": "1.0",
		"description":   "d",
		"keywords":      "k",
	}

	t.Run("missing zip", func(t *testing.T) {
		_, c := doMultipartRequest(t, e, "/api/v1/upload-asset", base, nil)
		c.Set("userID", user.ID)
		err := h.CreateAsset(c)
		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)
	})

	t.Run("bad category", func(t *testing.T) {
		fields := map[string]string{}
		for k, v := range base {
			fields[k] = v
		}
		fields["category"] = "Spaceships"
		_, c := doMultipartRequest(t, e, "/api/v1/upload-asset", fields, map[string]string{"zipFile": "a.zip"})
		c.Set("userID", user.ID)
		err := h.CreateAsset(c)
		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)
	})

	t.Run("no store", func(t *testing.T) {
		_, c := doMultipartRequest(t, e, "/api/v1/upload-asset", base, map[string]string{"zipFile": "a.zip"})
		c.Set("userID", uint(9999))
		err := h.CreateAsset(c)
		require.Error(t, err)
		require.Equal(t, http.StatusNotFound, err.(*echo.HTTPError).Code)
	})
}

func TestCreateGig(t *testing.T) {
	db := initTestDB(t)
	h := newCatalogHandler(db, &stubUploader{})
	e := echo.New()
	user, _ := seedSellerStore(t, db)

	packages := `[
		{"name":"Basic","price":15,"services":"logo"},
		{"name":"Standard","price":30,"services":"logo and card"},
		{"name":"Premium","price":60,"services":"full identity"}
	]`

	rec, c := doMultipartRequest(t, e, "/api/v1/upload-gig",
		map[string]string{
			"category":    "Graphics & Design",
			"productName": "logo design",
			"description": "I will design a logo",
			"keywords":    "logo, branding",
			"packages":    packages,
		}, nil)
	c.Set("userID", user.ID)

	require.NoError(t, h.CreateGig(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var gig models.Gig
	require.NoError(t, db.Preload("Packages").Where("product_name = ?", "logo design").First(&gig).Error)
	require.Len(t, gig.Packages, 3)
}

func TestCreateGigPackageRules(t *testing.T) {
	db := initTestDB(t)
	h := newCatalogHandler(db, &stubUploader{})
	e := echo.New()
	user, _ := seedSellerStore(t, db)

	twoTiers := `[
		{"name":"Basic","price":15,"services":"s"},
		{"name":"Premium","price":60,"services":"s"}
	]`

	_, c := doMultipartRequest(t, e, "/api/v1/upload-gig",
		map[string]string{
			"category":    "Graphics & Design",
			"productName": "logo design",
			"description": "d",
			"keywords":    "k",
			"packages":    twoTiers,
		}, nil)
	c.Set("userID", user.ID)

	err := h.CreateGig(c)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)
}

func TestCreateGameMobileTypeRule(t *testing.T) {
	db := initTestDB(t)
	h := newCatalogHandler(db, &stubUploader{})
	e := echo.New()
	user, _ := seedSellerStore(t, db)

	fields := map[string]string{
		"category":        "Puzzle",
		"productName":     "block drop",
		"price":           "5",
		"fileSize":        "200",
		"latestVersion":   "1.0",
		"description":     "d",
		"technicalDetail": "unity build",
		"platform":        "PC",
		"mobileType":      "Android",
		"keywords":        "puzzle",
	}

	_, c := doMultipartRequest(t, e, "/api/v1/upload-game", fields, nil)
	c.Set("userID", user.ID)
	err := h.CreateGame(c)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)

	fields["platform"] = "Mobile"
	rec, c := doMultipartRequest(t, e, "/api/v1/upload-game", fields, nil)
	c.Set("userID", user.ID)
	require.NoError(t, h.CreateGame(c))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestListByType(t *testing.T) {
	db := initTestDB(t)
	h := newCatalogHandler(db, &stubUploader{})
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/categories/assets", nil)
	c.SetParamNames("type")
	c.SetParamValues("assets")
	require.NoError(t, h.ListByType(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var page catalog.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Zero(t, page.TotalItems)

	_, c = doJSONRequest(t, e, http.MethodGet, "/api/v1/categories/bundles", nil)
	c.SetParamNames("type")
	c.SetParamValues("bundles")
	err := h.ListByType(c)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)

	_, c = doJSONRequest(t, e, http.MethodGet, "/api/v1/categories/games/Cooking", nil)
	c.SetParamNames("type", "category")
	c.SetParamValues("games", "Cooking")
	err = h.ListByType(c)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)
}

func TestDetailNotFound(t *testing.T) {
	db := initTestDB(t)
	h := newCatalogHandler(db, &stubUploader{})
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/get-asset-detail/999", nil)
	c.SetParamNames("id")
	c.SetParamValues("999")

	err := h.Detail(catalog.KindAsset)(c)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, err.(*echo.HTTPError).Code)
}
