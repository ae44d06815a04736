package service

import (
	"github.com/shopspring/decimal"

	"github.com/ddkma/bakery_shop/internal/models"
	"github.com/ddkma/bakery_shop/internal/repo"
	"github.com/ddkma/bakery_shop/internal/transport"
)

// BuildCartView assembles the read model: each row's subtotal and the cart
// total as the sum of subtotals. A nil cart yields the empty view (no items,
// total zero, not active) so a user without a cart never sees an error.
func BuildCartView(cart *models.Cart, userID uint, rows []repo.CartItemRow) *transport.CartView {
	view := &transport.CartView{
		UserID: userID,
		Items:  []transport.CartItemView{},
		Total:  decimal.Zero,
	}
	if cart == nil {
		return view
	}

	view.ID = cart.ID
	view.CreatedAt = cart.CreatedAt
	view.Active = cart.Active

	for _, row := range rows {
		subtotal := row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity)))
		view.Items = append(view.Items, transport.CartItemView{
			ID:           row.ID,
			CartID:       row.CartID,
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			ProductImage: row.ProductImage,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice,
			Subtotal:     subtotal,
		})
		view.Total = view.Total.Add(subtotal)
	}
	return view
}
