package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ddkma/bakery_shop/internal/events"
	"github.com/ddkma/bakery_shop/internal/service"
	"github.com/ddkma/bakery_shop/internal/transport"
	"github.com/ddkma/bakery_shop/pkg/logging"
)

type CartHTTP struct {
	Svc       *service.CartService
	Producer  EventPublisher
	JWTSecret []byte
}

// cartError maps domain errors to responses. Store failures never leak
// driver text to the caller.
func cartError(c echo.Context, err error) error {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case errors.Is(err, service.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
	case errors.Is(err, service.ErrProductUnavailable):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "product is not available"})
	case errors.As(err, &stockErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message":   stockErr.Error(),
			"available": stockErr.Available,
		})
	case errors.Is(err, service.ErrItemNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
	default:
		logging.FromContext(c.Request().Context()).Error("cart error", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	view, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return cartError(c, err)
	}

	l.Info("cart fetched", "user_id", userID, "items", len(view.Items))
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart.item")

	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	item, err := h.Svc.AddItem(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return cartError(c, err)
	}

	publish(c, h.Producer, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":       "cart_item_added",
		"user_id":    userID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	l.Info("item added", "user_id", userID, "product_id", item.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart.item")

	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil || itemID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid item id"})
	}

	var req transport.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_item_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	item, err := h.Svc.UpdateItemQuantity(ctx, userID, uint(itemID), req.NewQuantity)
	if err != nil {
		return cartError(c, err)
	}

	publish(c, h.Producer, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":         "cart_item_updated",
		"user_id":      userID,
		"item_id":      item.ID,
		"new_quantity": item.Quantity,
	})

	l.Info("item updated", "user_id", userID, "item_id", item.ID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart.item")

	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil || itemID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid item id"})
	}

	removed, err := h.Svc.RemoveItem(ctx, userID, uint(itemID))
	if err != nil {
		return cartError(c, err)
	}
	if !removed {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
	}

	publish(c, h.Producer, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":    "cart_item_removed",
		"user_id": userID,
		"item_id": itemID,
	})

	l.Info("item removed", "user_id", userID, "item_id", itemID)
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear.cart")

	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	cleared, err := h.Svc.ClearCart(ctx, userID)
	if err != nil {
		return cartError(c, err)
	}

	if cleared {
		publish(c, h.Producer, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
			"type":    "cart_cleared",
			"user_id": userID,
		})
	}

	l.Info("cart cleared", "user_id", userID, "had_cart", cleared)
	return c.NoContent(http.StatusNoContent)
}
