package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ddkma/bakery_shop/internal/models"
	"github.com/ddkma/bakery_shop/internal/repo"
	"github.com/ddkma/bakery_shop/internal/service"
)

var testSecret = []byte("test-secret")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))
	return db
}

func signToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

// newRequest builds an echo context for a direct handler call, optionally
// authenticated as the given user.
func newRequest(t *testing.T, e *echo.Echo, method, target, body string, userID uint, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID > 0 {
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: signToken(t, userID, role)})
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newCartHandler(t *testing.T) (*CartHTTP, *gorm.DB) {
	db := newTestDB(t)
	svc := &service.CartService{Repo: &repo.GormRepo{DB: db}}
	return &CartHTTP{Svc: svc, JWTSecret: testSecret}, db
}

func seedCartProduct(t *testing.T, db *gorm.DB, price int64, stock uint) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:      "conchas",
		Price:     decimal.NewFromInt(price),
		Stock:     stock,
		Available: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestGetCartUnauthorized(t *testing.T) {
	h, _ := newCartHandler(t)
	e := echo.New()

	c, _ := newRequest(t, e, http.MethodGet, "/api/v1/cart", "", 0, "")
	err := h.GetCart(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGetCartEmptyBody(t *testing.T) {
	h, _ := newCartHandler(t)
	e := echo.New()

	c, rec := newRequest(t, e, http.MethodGet, "/api/v1/cart", "", 7, "user")
	require.NoError(t, h.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UserID uint              `json:"user_id"`
		Active bool              `json:"active"`
		Items  []json.RawMessage `json:"items"`
		Total  string            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, uint(7), body.UserID)
	require.False(t, body.Active)
	require.NotNil(t, body.Items)
	require.Empty(t, body.Items)
	require.Equal(t, "0", body.Total)
}

func TestAddItemCreated(t *testing.T) {
	h, db := newCartHandler(t)
	e := echo.New()
	p := seedCartProduct(t, db, 8, 5)

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/cart/items",
		`{"product_id": 1, "quantity": 2}`, 7, "user")
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ProductID uint   `json:"product_id"`
		Quantity  uint   `json:"quantity"`
		Subtotal  string `json:"subtotal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, p.ID, body.ProductID)
	require.Equal(t, uint(2), body.Quantity)
	require.Equal(t, "16", body.Subtotal)
}

func TestAddItemUnknownProduct(t *testing.T) {
	h, _ := newCartHandler(t)
	e := echo.New()

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/cart/items",
		`{"product_id": 42, "quantity": 1}`, 7, "user")
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItemStockExceeded(t *testing.T) {
	h, db := newCartHandler(t)
	e := echo.New()
	seedCartProduct(t, db, 8, 5)

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/cart/items",
		`{"product_id": 1, "quantity": 10}`, 7, "user")
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Message   string `json:"message"`
		Available uint   `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, uint(5), body.Available)
	require.Contains(t, body.Message, "not enough stock")
}

func TestAddItemUnavailableProduct(t *testing.T) {
	h, db := newCartHandler(t)
	e := echo.New()
	p := seedCartProduct(t, db, 8, 5)
	require.NoError(t, db.Model(p).Update("available", false).Error)

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/cart/items",
		`{"product_id": 1, "quantity": 1}`, 7, "user")
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItemOK(t *testing.T) {
	h, db := newCartHandler(t)
	e := echo.New()
	seedCartProduct(t, db, 8, 5)

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/cart/items",
		`{"product_id": 1, "quantity": 2}`, 7, "user")
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var added struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))

	c, rec = newRequest(t, e, http.MethodPut, "/api/v1/cart/items/1",
		`{"new_quantity": 4}`, 7, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Quantity uint   `json:"quantity"`
		Subtotal string `json:"subtotal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, uint(4), body.Quantity)
	require.Equal(t, "32", body.Subtotal)
}

func TestUpdateItemNotOwned(t *testing.T) {
	h, db := newCartHandler(t)
	e := echo.New()
	seedCartProduct(t, db, 8, 5)

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/cart/items",
		`{"product_id": 1, "quantity": 2}`, 7, "user")
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// another user targets the same item id
	c, rec = newRequest(t, e, http.MethodPut, "/api/v1/cart/items/1",
		`{"new_quantity": 4}`, 8, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateItem(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateItemBadID(t *testing.T) {
	h, _ := newCartHandler(t)
	e := echo.New()

	c, rec := newRequest(t, e, http.MethodPut, "/api/v1/cart/items/zero",
		`{"new_quantity": 4}`, 7, "user")
	c.SetParamNames("id")
	c.SetParamValues("zero")
	require.NoError(t, h.UpdateItem(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItemNoContent(t *testing.T) {
	h, db := newCartHandler(t)
	e := echo.New()
	seedCartProduct(t, db, 8, 5)

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/cart/items",
		`{"product_id": 1, "quantity": 2}`, 7, "user")
	require.NoError(t, h.AddItem(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newRequest(t, e, http.MethodDelete, "/api/v1/cart/items/1", "", 7, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.RemoveItem(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// second delete of the same item
	c, rec = newRequest(t, e, http.MethodDelete, "/api/v1/cart/items/1", "", 7, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.RemoveItem(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCartNoContent(t *testing.T) {
	h, db := newCartHandler(t)
	e := echo.New()
	seedCartProduct(t, db, 8, 5)

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/cart/items",
		`{"product_id": 1, "quantity": 2}`, 7, "user")
	require.NoError(t, h.AddItem(c))

	c, rec = newRequest(t, e, http.MethodDelete, "/api/v1/cart/clear", "", 7, "user")
	require.NoError(t, h.ClearCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// idempotent for a user with no cart left
	c, rec = newRequest(t, e, http.MethodDelete, "/api/v1/cart/clear", "", 7, "user")
	require.NoError(t, h.ClearCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
