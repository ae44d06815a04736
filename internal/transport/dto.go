package transport

import (
	"time"

	"github.com/shopspring/decimal"
)

type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type UpdateItemRequest struct {
	NewQuantity uint `json:"new_quantity"`
}

type CartItemView struct {
	ID           uint            `json:"id"`
	CartID       uint            `json:"cart_id"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     uint            `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	Active    bool            `json:"active"`
	Items     []CartItemView  `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

// ProductView is the slimmed catalog shape for the storefront listing.
type ProductView struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Featured    bool            `json:"featured"`
	Stock       uint            `json:"stock"`
	Available   bool            `json:"available"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
