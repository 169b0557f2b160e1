package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/agrolink/farm-marketplace/internal/utils"
)

const testSecret = "test-secret"

func okHandler(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id": c.Get("user_id"),
        "role":    c.Get("role"),
    })
}

func doAuthed(t *testing.T, cookie *http.Cookie, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if cookie != nil {
        req.AddCookie(cookie)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    h := okHandler
    for i := len(mw) - 1; i >= 0; i-- {
        h = mw[i](h)
    }
    require.NoError(t, h(c))
    return rec
}

func TestCookieAuthMissingCookie(t *testing.T) {
    rec := doAuthed(t, nil, CookieAuth(testSecret))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "Not authenticated")
}

func TestCookieAuthInvalidToken(t *testing.T) {
    rec := doAuthed(t, &http.Cookie{Name: SessionCookie, Value: "garbage"}, CookieAuth(testSecret))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "Invalid token")
}

func TestCookieAuthWrongSecret(t *testing.T) {
    st, err := utils.NewSessionToken("other-secret", 5, "farmer", 24)
    require.NoError(t, err)
    rec := doAuthed(t, &http.Cookie{Name: SessionCookie, Value: st.Token}, CookieAuth(testSecret))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCookieAuthExpiredToken(t *testing.T) {
    st, err := utils.NewSessionToken(testSecret, 5, "farmer", -1)
    require.NoError(t, err)
    rec := doAuthed(t, &http.Cookie{Name: SessionCookie, Value: st.Token}, CookieAuth(testSecret))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCookieAuthValidToken(t *testing.T) {
    st, err := utils.NewSessionToken(testSecret, 5, "farmer", 24)
    require.NoError(t, err)
    rec := doAuthed(t, &http.Cookie{Name: SessionCookie, Value: st.Token}, CookieAuth(testSecret))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"user_id":5`)
    assert.Contains(t, rec.Body.String(), `"role":"farmer"`)
}

func TestRequireRoleAllows(t *testing.T) {
    st, err := utils.NewSessionToken(testSecret, 9, "dealer", 24)
    require.NoError(t, err)
    rec := doAuthed(t, &http.Cookie{Name: SessionCookie, Value: st.Token},
        CookieAuth(testSecret), RequireRole("dealer"))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejects(t *testing.T) {
    st, err := utils.NewSessionToken(testSecret, 9, "dealer", 24)
    require.NoError(t, err)
    rec := doAuthed(t, &http.Cookie{Name: SessionCookie, Value: st.Token},
        CookieAuth(testSecret), RequireRole("farmer"))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Contains(t, rec.Body.String(), "Forbidden")
}

func TestRequireRoleMissingRole(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    h := RequireRole("farmer")(okHandler)
    require.NoError(t, h(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
