package handler

import (
    "errors"
    "net/http"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/agrolink/farm-marketplace/internal/live"
    "github.com/agrolink/farm-marketplace/internal/model"
    "github.com/agrolink/farm-marketplace/internal/notify"
    "github.com/agrolink/farm-marketplace/internal/repository"
)

func mockedRequestHandler(t *testing.T) (*RequestHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    notifications := repository.NewNotificationRepo(db)
    h := NewRequestHandler(
        repository.NewRequestRepo(db),
        repository.NewCropRepo(db),
        repository.NewUserRepo(db),
        notifications,
        notify.NewDispatcher(notifications, live.NewHub()),
    )
    return h, mock
}

// A dealer may ask any price in a request; the crop's base price
// bounds bids only, not purchase requests.
func TestCreateRequestAnyPriceAccepted(t *testing.T) {
    h, mock := mockedRequestHandler(t)
    now := time.Now()

    mock.ExpectQuery(`FROM crops WHERE id=\? LIMIT 1`).
        WithArgs(int64(2)).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "farmer_id", "name", "quantity", "unit", "base_price", "total_cost", "land_size",
            "cultivate_date", "harvest_date", "crop_pic", "harvested", "created_at", "updated_at",
        }).AddRow(2, 7, "Rice", 100.0, "kg", 100.0, nil, nil, nil, nil, nil, false, now, now))
    mock.ExpectQuery(`FROM users WHERE id=\? LIMIT 1`).
        WithArgs(int64(9)).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "name", "email", "password_hash", "role", "address", "phone", "profile_pic", "created_at", "updated_at",
        }).AddRow(9, "Karim", "karim@example.com", "x", "dealer", "Dhaka", "01711000000", nil, now, now))
    mock.ExpectExec(`INSERT INTO requests`).
        WithArgs(int64(2), int64(7), int64(9), "01711000000", "Bashundhara, Dhaka",
            50.0, "kg", 120.0, model.RequestPending).
        WillReturnResult(sqlmock.NewResult(11, 1))
    mock.ExpectExec(`INSERT INTO notifications`).
        WillReturnResult(sqlmock.NewResult(5, 1))

    // bid_price 120 is well outside base_price 100 +/- 5
    body := `{"crop_id":2,"requested_quantity":50,"bid_price":120,` +
        `"dealer_phone":"01711000000","dealer_address":"Bashundhara, Dhaka"}`
    c, rec := jsonCtx(t, http.MethodPost, "/requests/create", body, 9)
    require.NoError(t, h.Create(c))

    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Contains(t, rec.Body.String(), `"request_id":11`)
    assert.Contains(t, rec.Body.String(), "Request created")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequestUnknownCrop(t *testing.T) {
    h, mock := mockedRequestHandler(t)

    mock.ExpectQuery(`FROM crops WHERE id=\? LIMIT 1`).
        WithArgs(int64(404)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    c, rec := jsonCtx(t, http.MethodPost, "/requests/create",
        `{"crop_id":404,"requested_quantity":5,"bid_price":40}`, 9)
    require.NoError(t, h.Create(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Contains(t, rec.Body.String(), "Crop not found")
}

func TestDecisionErrorMapping(t *testing.T) {
    cases := []struct {
        err  error
        code int
        body string
    }{
        {repository.ErrNotFound, http.StatusNotFound, "Request not found"},
        {repository.ErrForbidden, http.StatusForbidden, "Forbidden"},
        {repository.ErrInvalidState, http.StatusConflict, "Request already decided"},
        {errors.New("boom"), http.StatusInternalServerError, "Failed to update request"},
    }
    for _, tc := range cases {
        c, rec := jsonCtx(t, http.MethodPost, "/requests/accept/3", "", 7)
        require.NoError(t, decisionError(c, tc.err))
        assert.Equal(t, tc.code, rec.Code)
        assert.Contains(t, rec.Body.String(), tc.body)
    }
}
