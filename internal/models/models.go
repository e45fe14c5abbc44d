package models

import (
	"time"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
	PhoneNumber  string `json:"phoneNumber"`
	ProfilePic   string `json:"profilePic"`
}

// Store is a seller's storefront. One store per user.
type Store struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint   `gorm:"uniqueIndex;not null"     json:"userId"`
	Name        string `gorm:"not null"                 json:"name"`
	Description string `gorm:"not null"                 json:"description"`
	Image       string `json:"image"`
}

type Asset struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	StoreID       uint      `gorm:"index;not null"            json:"storeId"`
	Category      string    `gorm:"not null"                  json:"category"`
	YoutubeLink   string    `json:"youtubeLink"`
	ProductName   string    `gorm:"not null"                  json:"productName"`
	Price         float64   `gorm:"not null"                  json:"price"`
	Discount      float64   `gorm:"default:0"                 json:"discount"`
	FileSize      float64   `gorm:"not null"                  json:"fileSize"`
	LatestVersion string    `gorm:"not null"                  json:"latestVersion"`
	Description   string    `gorm:"not null"                  json:"description"`
	Keywords      []string  `gorm:"serializer:json;type:text" json:"keywords"`
	Images        []string  `gorm:"serializer:json;type:text" json:"images"`
	ZipFile       string    `gorm:"not null"                  json:"zipFile"`
	RatingAverage float64   `gorm:"default:0"                 json:"ratingAverage"`
	TotalRating   int64     `gorm:"default:0"                 json:"totalRating"`
	CreatedAt     time.Time `json:"createdAt"`
}

const (
	PackageBasic    = "Basic"
	PackageStandard = "Standard"
	PackagePremium  = "Premium"
)

type GigPackage struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	GigID    uint    `gorm:"index;not null"           json:"gigId"`
	Name     string  `gorm:"not null"                 json:"name"`
	Price    float64 `gorm:"not null"                 json:"price"`
	Services string  `gorm:"not null"                 json:"services"`
}

// Gig is a service-style listing sold in exactly three packages
// (Basic/Standard/Premium). Gigs are not cartable.
type Gig struct {
	ID            uint         `gorm:"primaryKey;autoIncrement"  json:"id"`
	StoreID       uint         `gorm:"index;not null"            json:"storeId"`
	Category      string       `gorm:"not null"                  json:"category"`
	YoutubeLink   string       `json:"youtubeLink"`
	ProductName   string       `gorm:"not null"                  json:"productName"`
	Description   string       `gorm:"not null"                  json:"description"`
	Packages      []GigPackage `json:"packages"`
	Keywords      []string     `gorm:"serializer:json;type:text" json:"keywords"`
	Images        []string     `gorm:"serializer:json;type:text" json:"images"`
	RatingAverage float64      `gorm:"default:0"                 json:"ratingAverage"`
	TotalRating   int64        `gorm:"default:0"                 json:"totalRating"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type Game struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	StoreID         uint      `gorm:"index;not null"            json:"storeId"`
	Category        string    `gorm:"not null"                  json:"category"`
	YoutubeLink     string    `json:"youtubeLink"`
	ProductName     string    `gorm:"not null"                  json:"productName"`
	Price           float64   `gorm:"not null"                  json:"price"`
	Discount        float64   `gorm:"default:0"                 json:"discount"`
	FileSize        float64   `gorm:"not null"                  json:"fileSize"`
	LatestVersion   string    `gorm:"not null"                  json:"latestVersion"`
	Description     string    `gorm:"not null"                  json:"description"`
	TechnicalDetail string    `gorm:"not null"                  json:"technicalDetail"`
	Keywords        []string  `gorm:"serializer:json;type:text" json:"keywords"`
	EarlyAccess     bool      `gorm:"default:false"             json:"earlyAccess"`
	Platform        string    `gorm:"not null"                  json:"platform"`
	MobileType      string    `json:"mobileType"`
	Images          []string  `gorm:"serializer:json;type:text" json:"images"`
	WebGLDemoZip    string    `json:"webglDemoZip"`
	RatingAverage   float64   `gorm:"default:0"                 json:"ratingAverage"`
	TotalRating     int64     `gorm:"default:0"                 json:"totalRating"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null"     json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem references an Asset or a Game. The composite unique index backs
// the "no duplicate (itemId, type) pair within a cart" rule.
type CartItem struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"            json:"id"`
	CartID   uint      `gorm:"uniqueIndex:idx_cart_entry;not null" json:"cartId"`
	ItemID   uint      `gorm:"uniqueIndex:idx_cart_entry;not null" json:"itemId"`
	ItemType string    `gorm:"uniqueIndex:idx_cart_entry;not null" json:"type"`
	AddedAt  time.Time `gorm:"autoCreateTime"                      json:"addedAt"`
}

// Review is append-only: one review per (user, item, type), enforced by the
// composite unique index.
type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"           json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_item;not null" json:"userId"`
	ItemID    uint      `gorm:"uniqueIndex:idx_user_item;not null" json:"itemId"`
	ItemType  string    `gorm:"uniqueIndex:idx_user_item;not null" json:"itemType"`
	Rating    int       `gorm:"not null"                           json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chat is keyed by (gig, initiator): at most one thread per buyer per gig.
// GigOwnerID is captured at creation time and never rewritten afterwards,
// even if store ownership changes.
type Chat struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"               json:"id"`
	GigID       uint      `gorm:"uniqueIndex:idx_gig_initiator;not null" json:"gigId"`
	InitiatorID uint      `gorm:"uniqueIndex:idx_gig_initiator;not null" json:"initiatorId"`
	GigOwnerID  uint      `gorm:"not null"                               json:"gigOwnerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Message struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID     uint      `gorm:"index;not null"           json:"chatId"`
	SenderID   uint      `gorm:"not null"                 json:"sender"`
	ReceiverID uint      `gorm:"not null"                 json:"receiver"`
	Content    string    `gorm:"not null"                 json:"content"`
	Timestamp  time.Time `gorm:"index"                    json:"timestamp"`
	IsRead     bool      `gorm:"default:false"            json:"isRead"`
}
