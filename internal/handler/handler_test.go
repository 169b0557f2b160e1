package handler

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/agrolink/farm-marketplace/internal/config"
    "github.com/agrolink/farm-marketplace/internal/live"
    "github.com/agrolink/farm-marketplace/internal/middleware"
    "github.com/agrolink/farm-marketplace/internal/notify"
    "github.com/agrolink/farm-marketplace/internal/repository"
)

// jsonCtx builds an echo context carrying a JSON body and optionally
// an authenticated user, without going through the middleware stack.
func jsonCtx(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if userID != 0 {
        c.Set("user_id", userID)
        c.Set("role", "farmer")
    }
    return c, rec
}

func testRequestHandler() *RequestHandler {
    notifications := repository.NewNotificationRepo(nil)
    return NewRequestHandler(
        repository.NewRequestRepo(nil),
        repository.NewCropRepo(nil),
        repository.NewUserRepo(nil),
        notifications,
        notify.NewDispatcher(notifications, live.NewHub()),
    )
}

func TestFtoa(t *testing.T) {
    assert.Equal(t, "45", ftoa(45))
    assert.Equal(t, "45.5", ftoa(45.5))
    assert.Equal(t, "0.25", ftoa(0.25))
}

func TestGetUserIDVariants(t *testing.T) {
    c, _ := jsonCtx(t, http.MethodGet, "/", "", 0)

    c.Set("user_id", uint64(7))
    uid, err := getUserID(c)
    require.NoError(t, err)
    assert.Equal(t, uint64(7), uid)

    c.Set("user_id", "13")
    uid, err = getUserID(c)
    require.NoError(t, err)
    assert.Equal(t, uint64(13), uid)

    c.Set("user_id", nil)
    _, err = getUserID(c)
    assert.Error(t, err)
}

func TestPathID(t *testing.T) {
    c, _ := jsonCtx(t, http.MethodGet, "/", "", 0)
    c.SetParamNames("id")
    c.SetParamValues("42")
    id, ok := pathID(c, "id")
    assert.True(t, ok)
    assert.Equal(t, uint64(42), id)

    c.SetParamValues("0")
    _, ok = pathID(c, "id")
    assert.False(t, ok)

    c.SetParamValues("abc")
    _, ok = pathID(c, "id")
    assert.False(t, ok)
}

func TestLogoutClearsCookie(t *testing.T) {
    h := NewAuthHandler(config.Config{}, repository.NewUserRepo(nil))
    c, rec := jsonCtx(t, http.MethodPost, "/auth/logout", "", 0)
    require.NoError(t, h.Logout(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    cookies := rec.Result().Cookies()
    require.Len(t, cookies, 1)
    assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
    assert.Empty(t, cookies[0].Value)
    assert.Negative(t, cookies[0].MaxAge)
}

func TestRegisterValidation(t *testing.T) {
    h := NewAuthHandler(config.Config{}, repository.NewUserRepo(nil))

    c, rec := jsonCtx(t, http.MethodPost, "/auth/register", `{"email":"a@b.c"}`, 0)
    require.NoError(t, h.Register(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "required")

    c, rec = jsonCtx(t, http.MethodPost, "/auth/register",
        `{"name":"A","email":"a@b.c","password":"pw","role":"admin"}`, 0)
    require.NoError(t, h.Register(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "farmer or dealer")
}

func TestLoginValidation(t *testing.T) {
    h := NewAuthHandler(config.Config{}, repository.NewUserRepo(nil))
    c, rec := jsonCtx(t, http.MethodPost, "/auth/login", `{"email":"a@b.c"}`, 0)
    require.NoError(t, h.Login(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCropAddValidation(t *testing.T) {
    h := NewCropHandler(repository.NewCropRepo(nil), repository.NewBidRepo(nil))

    c, rec := jsonCtx(t, http.MethodPost, "/crops/add", `{"name":"Rice"}`, 0)
    require.NoError(t, h.Add(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    c, rec = jsonCtx(t, http.MethodPost, "/crops/add", `{"name":"  "}`, 4)
    require.NoError(t, h.Add(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "name is required")

    c, rec = jsonCtx(t, http.MethodPost, "/crops/add", `{"name":"Rice"}`, 4)
    require.NoError(t, h.Add(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "quantity or land size")

    c, rec = jsonCtx(t, http.MethodPost, "/crops/add", `{"name":"Rice","quantity":-2}`, 4)
    require.NoError(t, h.Add(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "Quantity must be positive")
}

func TestListByFarmerOwnRecordsOnly(t *testing.T) {
    h := NewCropHandler(repository.NewCropRepo(nil), repository.NewBidRepo(nil))
    c, rec := jsonCtx(t, http.MethodGet, "/crops/farmer/2", "", 4)
    c.SetParamNames("id")
    c.SetParamValues("2")
    require.NoError(t, h.ListByFarmer(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlaceBidRequiresPrice(t *testing.T) {
    h := NewCropHandler(repository.NewCropRepo(nil), repository.NewBidRepo(nil))
    c, rec := jsonCtx(t, http.MethodPost, "/crops/bid/3", `{}`, 9)
    c.SetParamNames("cropId")
    c.SetParamValues("3")
    require.NoError(t, h.PlaceBid(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "bid_price is required")
}

func TestCreateRequestValidation(t *testing.T) {
    h := testRequestHandler()

    c, rec := jsonCtx(t, http.MethodPost, "/requests/create", `{"requested_quantity":5}`, 9)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "crop_id is required")

    c, rec = jsonCtx(t, http.MethodPost, "/requests/create",
        `{"crop_id":2,"requested_quantity":-1,"bid_price":40}`, 9)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "quantity must be positive")

    c, rec = jsonCtx(t, http.MethodPost, "/requests/create",
        `{"crop_id":2,"requested_quantity":5}`, 9)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "bid_price is required")
}

func TestListNotificationsOwnFeedOnly(t *testing.T) {
    h := testRequestHandler()
    c, rec := jsonCtx(t, http.MethodGet, "/requests/notifications/2", "", 9)
    c.SetParamNames("userId")
    c.SetParamValues("2")
    require.NoError(t, h.ListNotifications(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMarkNotificationReadBadID(t *testing.T) {
    h := testRequestHandler()
    c, rec := jsonCtx(t, http.MethodPatch, "/requests/notifications/read/x", "", 9)
    c.SetParamNames("id")
    c.SetParamValues("x")
    require.NoError(t, h.MarkNotificationRead(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHarvestValidation(t *testing.T) {
    h := NewMarketplaceHandler(repository.NewCropRepo(nil), repository.NewMarketplaceRepo(nil))
    c, rec := jsonCtx(t, http.MethodPost, "/marketplace/harvest/0", "", 4)
    c.SetParamNames("cropId")
    c.SetParamValues("0")
    require.NoError(t, h.Harvest(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddDirectValidation(t *testing.T) {
    h := NewMarketplaceHandler(repository.NewCropRepo(nil), repository.NewMarketplaceRepo(nil))

    c, rec := jsonCtx(t, http.MethodPost, "/marketplace/add-direct", `{"name":"Rice"}`, 4)
    require.NoError(t, h.AddDirect(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "Quantity must be positive")

    c, rec = jsonCtx(t, http.MethodPost, "/marketplace/add-direct",
        `{"name":"Rice","quantity":10}`, 4)
    require.NoError(t, h.AddDirect(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "Price cannot be negative")
}

func TestHealth(t *testing.T) {
    c, rec := jsonCtx(t, http.MethodGet, "/healthz", "", 0)
    require.NoError(t, Health(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
}
