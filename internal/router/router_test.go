package router

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/agrolink/farm-marketplace/internal/handler"
    "github.com/agrolink/farm-marketplace/internal/live"
    "github.com/agrolink/farm-marketplace/internal/middleware"
    "github.com/agrolink/farm-marketplace/internal/notify"
    "github.com/agrolink/farm-marketplace/internal/repository"
    "github.com/agrolink/farm-marketplace/internal/utils"
)

const testSecret = "router-test-secret"

func cropsEcho(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    crops := repository.NewCropRepo(db)
    notifications := repository.NewNotificationRepo(db)
    crop := handler.NewCropHandler(crops, repository.NewBidRepo(db))
    req := handler.NewRequestHandler(
        repository.NewRequestRepo(db),
        crops,
        repository.NewUserRepo(db),
        notifications,
        notify.NewDispatcher(notifications, live.NewHub()),
    )

    e := echo.New()
    RegisterCrops(e, crop, req, testSecret)
    return e, mock
}

func sessionCookie(t *testing.T, userID uint64, role string) *http.Cookie {
    t.Helper()
    tok, err := utils.NewSessionToken(testSecret, userID, role, 1)
    require.NoError(t, err)
    return &http.Cookie{Name: middleware.SessionCookie, Value: tok.Token}
}

// Browsing the crop list is open to any authenticated user; the
// dealer role gates only bids and purchase requests.
func TestBrowseCropsAnyRole(t *testing.T) {
    for _, role := range []string{"farmer", "dealer"} {
        e, mock := cropsEcho(t)
        mock.ExpectQuery(`FROM crops c`).
            WillReturnRows(sqlmock.NewRows([]string{
                "id", "farmer_id", "name", "quantity", "unit", "base_price", "total_cost", "land_size",
                "cultivate_date", "harvest_date", "crop_pic", "harvested", "created_at", "updated_at",
                "farmer_name", "highest_bid",
            }))

        req := httptest.NewRequest(http.MethodGet, "/crops", nil)
        req.AddCookie(sessionCookie(t, 4, role))
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)

        assert.Equal(t, http.StatusOK, rec.Code, role)
        assert.NoError(t, mock.ExpectationsWereMet())
    }
}

func TestBrowseCropsRequiresSession(t *testing.T) {
    e, _ := cropsEcho(t)
    req := httptest.NewRequest(http.MethodGet, "/crops", nil)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceBidFarmerRejected(t *testing.T) {
    e, _ := cropsEcho(t)
    req := httptest.NewRequest(http.MethodPost, "/crops/bid/3", nil)
    req.AddCookie(sessionCookie(t, 4, "farmer"))
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
