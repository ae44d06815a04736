package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ddkma/bakery_shop/internal/models"
	"github.com/ddkma/bakery_shop/internal/repo"
)

func newAuthHandler(t *testing.T) (*AuthHTTP, *gorm.DB) {
	db := newTestDB(t)
	return &AuthHTTP{
		Repo:          &repo.GormRepo{DB: db},
		JWTSecret:     testSecret,
		RefreshSecret: []byte("test-refresh-secret"),
	}, db
}

func registerUser(t *testing.T, h *AuthHTTP, e *echo.Echo, username, password string) {
	t.Helper()
	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/register",
		`{"username": "`+username+`", "password": "`+password+`"}`, 0, "")
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegister(t *testing.T) {
	h, db := newAuthHandler(t)
	e := echo.New()

	registerUser(t, h, e, "maria", "pan dulce")

	var user models.User
	require.NoError(t, db.Where("username = ?", "maria").First(&user).Error)
	require.Equal(t, "user", user.Role)
	require.NotEqual(t, "pan dulce", user.PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	h, _ := newAuthHandler(t)
	e := echo.New()

	registerUser(t, h, e, "maria", "pan dulce")

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/register",
		`{"username": "maria", "password": "otra"}`, 0, "")
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	h, _ := newAuthHandler(t)
	e := echo.New()

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/register",
		`{"username": "maria"}`, 0, "")
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	h, db := newAuthHandler(t)
	e := echo.New()

	registerUser(t, h, e, "maria", "pan dulce")

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/login",
		`{"username": "maria", "password": "pan dulce"}`, 0, "")
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IsAdmin      bool   `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	require.NotEmpty(t, body.RefreshToken)
	require.False(t, body.IsAdmin)

	// both cookies set, refresh token persisted
	cookies := rec.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		names = append(names, ck.Name)
	}
	require.Contains(t, names, "accessToken")
	require.Contains(t, names, "refreshToken")

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", body.RefreshToken).First(&stored).Error)
	require.False(t, stored.Revoked)
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := newAuthHandler(t)
	e := echo.New()

	registerUser(t, h, e, "maria", "pan dulce")

	c, _ := newRequest(t, e, http.MethodPost, "/api/v1/login",
		`{"username": "maria", "password": "wrong"}`, 0, "")
	err := h.Login(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	h, _ := newAuthHandler(t)
	e := echo.New()

	c, _ := newRequest(t, e, http.MethodPost, "/api/v1/login",
		`{"username": "nadie", "password": "x"}`, 0, "")
	err := h.Login(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogOut(t *testing.T) {
	h, db := newAuthHandler(t)
	e := echo.New()

	registerUser(t, h, e, "maria", "pan dulce")

	c, rec := newRequest(t, e, http.MethodPost, "/api/v1/login",
		`{"username": "maria", "password": "pan dulce"}`, 0, "")
	require.NoError(t, h.Login(c))

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	c, rec = newRequest(t, e, http.MethodPost, "/api/v1/logout", "", 0, "")
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: body.RefreshToken})
	require.NoError(t, h.LogOut(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", body.RefreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}

func TestGetUserNotFound(t *testing.T) {
	h, _ := newAuthHandler(t)
	e := echo.New()

	c, rec := newRequest(t, e, http.MethodGet, "/api/v1/users/99", "", 0, "")
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.GetUser(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
