package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ddkma/bakery_shop/internal/models"
	"github.com/ddkma/bakery_shop/internal/repo"
	"github.com/ddkma/bakery_shop/internal/transport"
)

// CartService orchestrates the cart: product lookup, stock validation,
// atomic store mutation, view assembly. Stock validation is advisory; it
// happens before the cart transaction and no product lock is carried across
// it, so two near-simultaneous adds against the last unit can both pass.
// The store still guarantees one active cart per user and one row per
// (cart, product).
type CartService struct {
	Repo *repo.GormRepo
}

// GetCart never fails for a user without a cart: the empty view is the
// correct representation, not an error.
func (s *CartService) GetCart(ctx context.Context, userID uint) (*transport.CartView, error) {
	cart, err := s.Repo.FindActiveCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return BuildCartView(nil, userID, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart for user %d: %w", userID, err)
	}

	rows, err := s.Repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("list items of cart %d: %w", cart.ID, err)
	}

	return BuildCartView(cart, userID, rows), nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID, quantity uint) (*transport.CartItemView, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user id is required: %w", ErrInvalidInput)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidInput)
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup product %d: %w", productID, err)
	}

	if err := ValidateAddition(product, quantity); err != nil {
		return nil, err
	}

	// The stored unit price is the product's price at first add; an
	// accumulating add does not refresh it.
	item, err := s.Repo.AddOrAccumulateItem(ctx, userID, productID, quantity, product.Price)
	if err != nil {
		return nil, fmt.Errorf("add product %d to cart of user %d: %w", productID, userID, err)
	}

	return itemView(item, product.Name, product.Image), nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID, newQuantity uint) (*transport.CartItemView, error) {
	if newQuantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidInput)
	}

	row, err := s.Repo.GetOwnedItem(ctx, userID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// missing and not-owned are deliberately the same answer
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup item %d for user %d: %w", itemID, userID, err)
	}

	product := &models.Product{
		ID:        row.ProductID,
		Name:      row.ProductName,
		Image:     row.ProductImage,
		Stock:     row.Stock,
		Available: row.Available,
		Deleted:   row.Deleted,
	}
	if err := ValidateQuantityChange(product, newQuantity); err != nil {
		return nil, err
	}

	item, err := s.Repo.SetItemQuantity(ctx, row.CartID, itemID, newQuantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set quantity of item %d: %w", itemID, err)
	}

	// subtotal comes from the stored unit price, never re-snapshotted
	return itemView(item, row.ProductName, row.ProductImage), nil
}

// RemoveItem returns false, not an error, when nothing matched.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) (bool, error) {
	removed, err := s.Repo.DeleteItem(ctx, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("remove item %d for user %d: %w", itemID, userID, err)
	}
	return removed, nil
}

// ClearCart retires the active cart; returns false when there was none.
func (s *CartService) ClearCart(ctx context.Context, userID uint) (bool, error) {
	cleared, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("clear cart for user %d: %w", userID, err)
	}
	return cleared, nil
}

func itemView(item *models.CartItem, name, image string) *transport.CartItemView {
	return &transport.CartItemView{
		ID:           item.ID,
		CartID:       item.CartID,
		ProductID:    item.ProductID,
		ProductName:  name,
		ProductImage: image,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		Subtotal:     item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
}
