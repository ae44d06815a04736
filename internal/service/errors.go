package service

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to the transport layer. Store failures are wrapped
// with operation context instead and reach the boundary as generic 500s.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrItemNotFound       = errors.New("cart item not found")
)

// InsufficientStockError carries how much stock is actually left so callers
// can tell the user instead of guessing.
type InsufficientStockError struct {
	Available uint
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock, available: %d", e.Available)
}
