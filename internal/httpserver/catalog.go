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

type CatalogHTTP struct {
	Svc       *service.CatalogService
	Producer  EventPublisher
	JWTSecret []byte
}

func catalogError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case errors.Is(err, service.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
	default:
		logging.FromContext(c.Request().Context()).Error("catalog error", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}
}

func (h *CatalogHTTP) requireAdmin(c echo.Context) error {
	_, role, err := GetClaims(c, h.JWTSecret)
	if err != nil {
		return err
	}
	if role != "admin" {
		return echo.NewHTTPError(http.StatusForbidden, "admin only")
	}
	return nil
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	views, err := h.Svc.ListProducts(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, views)
}

func (h *CatalogHTTP) ListFeatured(c echo.Context) error {
	views, err := h.Svc.ListFeatured(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, views)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product id"})
	}

	product, err := h.Svc.GetProduct(c.Request().Context(), uint(id))
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) ListAllAdmin(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	items, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetProductAdmin(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product id"})
	}

	product, err := h.Svc.GetProductAdmin(c.Request().Context(), uint(id))
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	product, err := h.Svc.CreateProduct(c.Request().Context(), req)
	if err != nil {
		return catalogError(c, err)
	}

	publish(c, h.Producer, events.TopicProduct, strconv.FormatUint(uint64(product.ID), 10), map[string]any{
		"type":       "product_created",
		"product_id": product.ID,
		"name":       product.Name,
	})

	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product id"})
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	product, err := h.Svc.UpdateProduct(c.Request().Context(), uint(id), req)
	if err != nil {
		return catalogError(c, err)
	}

	publish(c, h.Producer, events.TopicProduct, strconv.Itoa(id), map[string]any{
		"type":       "product_updated",
		"product_id": product.ID,
		"name":       product.Name,
	})

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product id"})
	}

	if err := h.Svc.DeleteProduct(c.Request().Context(), uint(id)); err != nil {
		return catalogError(c, err)
	}

	publish(c, h.Producer, events.TopicProduct, strconv.Itoa(id), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}
