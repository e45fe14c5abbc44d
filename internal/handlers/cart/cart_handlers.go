package cart

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/jwtmiddleware"
	"github.com/pixelbay/marketplace/internal/models"
	"github.com/pixelbay/marketplace/internal/mykafka"
	"github.com/pixelbay/marketplace/internal/service/catalog"
)

type CartHandler struct {
	DB       *gorm.DB
	Engine   *catalog.Engine
	Producer *mykafka.Producer
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID := jwtmiddleware.UserID(c)

	var req struct {
		ItemID uint   `json:"itemId"`
		Type   string `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	kind, err := catalog.ParseKind(req.Type)
	if err != nil || !kind.Cartable() {
		// Gigs are service engagements, not purchasable line items.
		return echo.NewHTTPError(http.StatusBadRequest, "Item type must be Asset or Game")
	}

	exists, err := h.Engine.ItemExists(c.Request().Context(), kind, req.ItemID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "Item not found")
	}

	var cart models.Cart
	if err := h.DB.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var existing models.CartItem
	tx := h.DB.Where("cart_id = ? AND item_id = ? AND item_type = ?", cart.ID, req.ItemID, string(kind)).First(&existing)
	if tx.Error == nil {
		return echo.NewHTTPError(http.StatusConflict, "Item already in cart")
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	item := models.CartItem{
		CartID:   cart.ID,
		ItemID:   req.ItemID,
		ItemType: string(kind),
	}
	if err := h.DB.Create(&item).Error; err != nil {
		// Unique index catches the concurrent double-add.
		return echo.NewHTTPError(http.StatusConflict, "Item already in cart")
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_added",
		"userID":   userID,
		"itemID":   req.ItemID,
		"itemType": string(kind),
	})

	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID := jwtmiddleware.UserID(c)

	var req struct {
		ItemID uint   `json:"itemId"`
		Type   string `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	kind, err := catalog.ParseKind(req.Type)
	if err != nil || !kind.Cartable() {
		return echo.NewHTTPError(http.StatusBadRequest, "Item type must be Asset or Game")
	}

	var cart models.Cart
	if err := h.DB.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Cart not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Removing an entry that is not there is not an error.
	if err := h.DB.Where("cart_id = ? AND item_id = ? AND item_type = ?", cart.ID, req.ItemID, string(kind)).
		Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_removed",
		"userID":   userID,
		"itemID":   req.ItemID,
		"itemType": string(kind),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Item removed from cart",
	})
}

type cartLine struct {
	ItemID    uint    `json:"itemId"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	StoreName string  `json:"storeName"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID := jwtmiddleware.UserID(c)

	var cart models.Cart
	if err := h.DB.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Cart not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	lines := make([]cartLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		line, ok, err := h.resolve(c, it)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !ok {
			// Referenced item disappeared: drop the line silently.
			continue
		}
		lines = append(lines, line)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"cartId": cart.ID,
		"items":  lines,
	})
}

// resolve turns a cart entry into a display summary, joining the store name.
func (h *CartHandler) resolve(c echo.Context, it models.CartItem) (cartLine, bool, error) {
	line := cartLine{ItemID: it.ItemID, Type: it.ItemType}
	var storeID uint

	switch it.ItemType {
	case string(catalog.KindAsset):
		var a models.Asset
		if err := h.DB.First(&a, it.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return line, false, nil
			}
			return line, false, err
		}
		line.Name, line.Price, line.Discount = a.ProductName, a.Price, a.Discount
		if len(a.Images) > 0 {
			line.Image = a.Images[0]
		}
		storeID = a.StoreID
	case string(catalog.KindGame):
		var g models.Game
		if err := h.DB.First(&g, it.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return line, false, nil
			}
			return line, false, err
		}
		line.Name, line.Price, line.Discount = g.ProductName, g.Price, g.Discount
		if len(g.Images) > 0 {
			line.Image = g.Images[0]
		}
		storeID = g.StoreID
	default:
		return line, false, nil
	}

	var store models.Store
	if err := h.DB.First(&store, storeID).Error; err == nil {
		line.StoreName = store.Name
	}
	return line, true, nil
}
