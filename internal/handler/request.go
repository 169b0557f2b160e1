package handler

import (
    "context"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/agrolink/farm-marketplace/internal/model"
    "github.com/agrolink/farm-marketplace/internal/notify"
    "github.com/agrolink/farm-marketplace/internal/queue"
    "github.com/agrolink/farm-marketplace/internal/repository"
)

// RequestHandler implements the purchase-request workflow: a dealer
// opens a request against a crop, the owning farmer decides it, and
// both sides are kept informed through persisted notifications with a
// best-effort live push. Decisions are terminal; a request is decided
// exactly once.
type RequestHandler struct {
    Requests      *repository.RequestRepo
    Crops         *repository.CropRepo
    Users         *repository.UserRepo
    Notifications *repository.NotificationRepo
    Notifier      *notify.Dispatcher
}

// NewRequestHandler constructs a RequestHandler. All dependencies must be non-nil.
func NewRequestHandler(requests *repository.RequestRepo, crops *repository.CropRepo, users *repository.UserRepo, notifications *repository.NotificationRepo, notifier *notify.Dispatcher) *RequestHandler {
    if requests == nil || crops == nil || users == nil || notifications == nil || notifier == nil {
        panic("nil dependency passed to NewRequestHandler")
    }
    return &RequestHandler{
        Requests:      requests,
        Crops:         crops,
        Users:         users,
        Notifications: notifications,
        Notifier:      notifier,
    }
}

type createRequestReq struct {
    CropID            uint64   `json:"crop_id"`
    RequestedQuantity *float64 `json:"requested_quantity"`
    Unit              *string  `json:"unit"`
    BidPrice          *float64 `json:"bid_price"`
    DealerPhone       *string  `json:"dealer_phone"`
    DealerAddress     *string  `json:"dealer_address"`
}

// Create handles POST /requests/create with the crop id in the body.
func (h *RequestHandler) Create(c echo.Context) error {
    var req createRequestReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }
    if req.CropID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "crop_id is required"})
    }
    return h.create(c, req.CropID, req)
}

// CreateForCrop handles POST /crops/request/:cropId, the same
// operation addressed by path instead of body.
func (h *RequestHandler) CreateForCrop(c echo.Context) error {
    cropID, ok := pathID(c, "cropId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid crop id"})
    }
    var req createRequestReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }
    return h.create(c, cropID, req)
}

func (h *RequestHandler) create(c echo.Context, cropID uint64, req createRequestReq) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    if req.RequestedQuantity == nil || *req.RequestedQuantity <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Requested quantity must be positive"})
    }
    if req.BidPrice == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "bid_price is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    crop, err := h.Crops.GetByID(ctx, cropID)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"message": "Crop not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load crop"})
    }
    unit := ""
    if req.Unit != nil {
        unit = strings.TrimSpace(*req.Unit)
    }
    if unit == "" && crop.Unit != nil {
        unit = *crop.Unit
    }
    if unit == "" {
        unit = "kg"
    }

    dealer, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load user"})
    }

    requestID, err := h.Requests.Create(ctx, repository.NewRequest{
        CropID:            crop.ID,
        FarmerID:          crop.FarmerID,
        DealerID:          uid,
        DealerPhone:       req.DealerPhone,
        DealerAddress:     req.DealerAddress,
        RequestedQuantity: *req.RequestedQuantity,
        Unit:              unit,
        BidPrice:          *req.BidPrice,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create request"})
    }

    message := fmt.Sprintf("%s requested %s %s of %s at %s Tk",
        dealer.Name, ftoa(*req.RequestedQuantity), unit, crop.Name, ftoa(*req.BidPrice))
    notifID, err := h.Notifier.Dispatch(ctx, crop.FarmerID, model.NotifDealerRequest, "New purchase request", message,
        notify.RequestInfo{
            RequestID:         requestID,
            CropName:          crop.Name,
            RequestedQuantity: *req.RequestedQuantity,
            Unit:              unit,
            BidPrice:          *req.BidPrice,
        })
    if err != nil {
        // The request row exists; losing the notification must not
        // undo the dealer's action.
        c.Logger().Errorf("notify farmer %d about request %d: %v", crop.FarmerID, requestID, err)
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "message":         "Request created",
        "request_id":      requestID,
        "notification_id": notifID,
    })
}

// Detail handles GET /requests/:requestId. Only the two parties to
// the request may view it.
func (h *RequestHandler) Detail(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    requestID, ok := pathID(c, "requestId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    det, err := h.Requests.GetDetail(ctx, requestID)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"message": "Request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load request"})
    }
    if det.FarmerID != uid && det.DealerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden"})
    }
    return c.JSON(http.StatusOK, echo.Map{"request": det})
}

// Accept handles POST /requests/accept/:id. The pending-to-accepted
// transition, the dealer's notification row and nothing else commit
// in one transaction; the live push and the receipt event go out only
// after the commit so neither can ever describe a rolled-back deal.
func (h *RequestHandler) Accept(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    requestID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    det, err := h.Requests.GetDetail(ctx, requestID)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"message": "Request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load request"})
    }

    receiptRef := fmt.Sprintf("/receipts/receipt_request_%d_%s.pdf", requestID, uuid.NewString())
    message := fmt.Sprintf("%s accepted your request for %s %s of %s at %s Tk",
        det.FarmerName, ftoa(det.RequestedQuantity), det.Unit, det.CropName, ftoa(det.BidPrice))

    tx, err := h.Requests.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if _, err := h.Requests.DecideTx(ctx, tx, requestID, uid, model.RequestAccepted); err != nil {
        return decisionError(c, err)
    }
    notifID, err := h.Notifications.InsertTx(ctx, tx, det.DealerID, model.NotifDeal, "Congratulations!", message, &requestID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create notification"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to commit transaction"})
    }
    committed = true

    h.Notifier.Push(det.DealerID, notifID, model.NotifDeal, "Congratulations!", message,
        notify.RequestInfo{
            RequestID:         requestID,
            CropName:          det.CropName,
            RequestedQuantity: det.RequestedQuantity,
            Unit:              det.Unit,
            BidPrice:          det.BidPrice,
        }, time.Now().UTC())

    // Receipt rendering happens out of process; the broker being down
    // must not fail the accept.
    go func() {
        pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer pcancel()
        _ = queue.PublishDealAccepted(pctx, queue.DealAcceptedEvent{
            RequestID:  requestID,
            CropName:   det.CropName,
            FarmerName: det.FarmerName,
            DealerName: det.DealerName,
            Quantity:   det.RequestedQuantity,
            Unit:       det.Unit,
            BidPrice:   det.BidPrice,
            ReceiptRef: receiptRef,
            AcceptedAt: time.Now().UTC().Format(time.RFC3339),
        })
    }()

    return c.JSON(http.StatusOK, echo.Map{
        "message":     "Request accepted",
        "receipt_url": receiptRef,
    })
}

// Reject handles POST /requests/reject/:id. Rejection is terminal too
// but produces no notification or receipt.
func (h *RequestHandler) Reject(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    requestID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Requests.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if _, err := h.Requests.DecideTx(ctx, tx, requestID, uid, model.RequestRejected); err != nil {
        return decisionError(c, err)
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to commit transaction"})
    }
    committed = true

    return c.JSON(http.StatusOK, echo.Map{"message": "Request rejected"})
}

// decisionError maps DecideTx failures onto the shared status scheme.
func decisionError(c echo.Context, err error) error {
    switch err {
    case repository.ErrNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"message": "Request not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden"})
    case repository.ErrInvalidState:
        return c.JSON(http.StatusConflict, echo.Map{"message": "Request already decided"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update request"})
    }
}

// ListNotifications handles GET /requests/notifications/:userId. A
// user may only read their own feed.
func (h *RequestHandler) ListNotifications(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    userID, ok := pathID(c, "userId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid user id"})
    }
    if userID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    notifications, unread, err := h.Notifications.ListByUser(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load notifications"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "notifications": notifications,
        "unreadCount":   unread,
    })
}

// MarkNotificationRead handles POST /requests/notifications/read/:id.
// Re-reading an already-read notification is a no-op success.
func (h *RequestHandler) MarkNotificationRead(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    notifID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid notification id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    err = h.Notifications.MarkRead(ctx, notifID, uid)
    switch {
    case err == repository.ErrNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"message": "Notification not found"})
    case err == repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden"})
    case err != nil:
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update notification"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Notification marked as read"})
}
