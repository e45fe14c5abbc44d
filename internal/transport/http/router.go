package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/handlers"
	"github.com/pixelbay/marketplace/internal/handlers/cart"
	"github.com/pixelbay/marketplace/internal/jwtmiddleware"
	"github.com/pixelbay/marketplace/internal/service/catalog"
)

type Deps struct {
	DB             *gorm.DB
	JWTSecret      []byte
	AuthHandler    *handlers.AuthHandler
	StoreHandler   *handlers.StoreHandler
	CatalogHandler *handlers.CatalogHandler
	ReviewHandler  *handlers.ReviewHandler
	CartHandler    *cart.CartHandler
	ChatHandler    *handlers.ChatHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/signup", d.AuthHandler.SignUp)
	v1.POST("/signin", d.AuthHandler.SignIn)

	v1.GET("/search", d.SearchHandler.Search)
	v1.GET("/search/fulltext", d.SearchHandler.FullText)

	v1.GET("/assets", d.CatalogHandler.ListKind(catalog.KindAsset))
	v1.GET("/gigs", d.CatalogHandler.ListKind(catalog.KindGig))
	v1.GET("/games", d.CatalogHandler.ListKind(catalog.KindGame))
	v1.GET("/categories/:type", d.CatalogHandler.ListByType)
	v1.GET("/categories/:type/:category", d.CatalogHandler.ListByType)

	v1.GET("/get-stores-assets/:storeId", d.CatalogHandler.StoreItems(catalog.KindAsset))
	v1.GET("/get-stores-gigs/:storeId", d.CatalogHandler.StoreItems(catalog.KindGig))
	v1.GET("/get-stores-games/:storeId", d.CatalogHandler.StoreItems(catalog.KindGame))
	v1.GET("/get-asset-detail/:id", d.CatalogHandler.Detail(catalog.KindAsset))
	v1.GET("/get-gig-detail/:id", d.CatalogHandler.Detail(catalog.KindGig))
	v1.GET("/get-game-detail/:id", d.CatalogHandler.Detail(catalog.KindGame))

	v1.GET("/reviews/:itemType/:itemId", d.ReviewHandler.GetReviews)

	authed := v1.Group("", jwtmiddleware.RequireAuth(d.JWTSecret))

	authed.PUT("/update-role", d.AuthHandler.UpdateRole)
	authed.PUT("/update-profile", d.AuthHandler.UpdateProfile)

	authed.POST("/store", d.StoreHandler.CreateStore)
	authed.PUT("/update-store", d.StoreHandler.EditStore)

	authed.POST("/upload-asset", d.CatalogHandler.CreateAsset)
	authed.POST("/upload-gig", d.CatalogHandler.CreateGig)
	authed.POST("/upload-game", d.CatalogHandler.CreateGame)

	authed.POST("/reviews", d.ReviewHandler.CreateReview)

	authed.POST("/add-to-cart", d.CartHandler.AddToCart)
	authed.POST("/remove-from-cart", d.CartHandler.RemoveFromCart)
	authed.GET("/get-cart", d.CartHandler.GetCart)

	authed.POST("/chats", d.ChatHandler.SendMessage)
	authed.GET("/chats", d.ChatHandler.GetUserChatList)
	authed.GET("/chats/:chatId", d.ChatHandler.GetChatHistory)
}
