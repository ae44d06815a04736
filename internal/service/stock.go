package service

import "github.com/ddkma/bakery_shop/internal/models"

// The stock guard is the single authority on whether a quantity change is
// admissible. Pure checks, no I/O: callers pass the product snapshot they
// already resolved.

// ValidateAddition checks a requested add-to-cart quantity against the
// product's live state.
func ValidateAddition(product *models.Product, quantity uint) error {
	if product == nil {
		return ErrProductNotFound
	}
	if product.Deleted || !product.Available {
		return ErrProductUnavailable
	}
	if product.Stock < quantity {
		return &InsufficientStockError{Available: product.Stock}
	}
	return nil
}

// ValidateQuantityChange applies the same rules to an absolute target
// quantity rather than a delta.
func ValidateQuantityChange(product *models.Product, newQuantity uint) error {
	if product == nil {
		return ErrProductNotFound
	}
	if product.Deleted || !product.Available {
		return ErrProductUnavailable
	}
	if product.Stock < newQuantity {
		return &InsufficientStockError{Available: product.Stock}
	}
	return nil
}
