package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `gorm:"not null"                    json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Image       string          `json:"image"`
	Featured    bool            `gorm:"default:false"               json:"featured"`
	Stock       uint            `json:"stock"`
	Available   bool            `gorm:"default:true"                json:"available"`
	Deleted     bool            `gorm:"default:false;index"         json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

// Cart rows are never deleted: clearing a cart flips Active to false and the
// next addition creates a fresh row. At most one row per user may be active,
// enforced by a partial unique index (see Migrate).
type Cart struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Active    bool      `gorm:"not null;default:true"    json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type CartItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"              json:"id"`
	CartID    uint            `gorm:"uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	ProductID uint            `gorm:"uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Quantity  uint            `gorm:"check:quantity>0"                      json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"           json:"unit_price"`
}

// Migrate creates the schema plus the partial index that keeps a user from
// holding two active carts at once. The partial index syntax is shared by
// Postgres and SQLite, so the in-memory test database carries the same
// constraint as production.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Product{},
		&User{},
		&RefreshToken{},
		&Cart{},
		&CartItem{},
	); err != nil {
		return err
	}
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_one_active ON carts (user_id) WHERE active",
	).Error
}
