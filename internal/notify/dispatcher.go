// Package notify couples the durable notification store to the live
// websocket registry. Persistence always happens first; the push is a
// latency optimization for sessions already connected and its failure
// is deliberately swallowed.
package notify

import (
    "context"
    "time"

    "github.com/agrolink/farm-marketplace/internal/live"
    "github.com/agrolink/farm-marketplace/internal/repository"
)

// EventNewRequest is the event name emitted on a user's room for
// every workflow notification.
const EventNewRequest = "newRequest"

// RequestInfo carries the denormalized request fields included in the
// live event payload so the receiving session can render it without a
// round trip.
type RequestInfo struct {
    RequestID         uint64
    CropName          string
    RequestedQuantity float64
    Unit              string
    BidPrice          float64
}

// requestEvent is the wire payload of a newRequest event.
type requestEvent struct {
    ID                uint64  `json:"id"`
    Type              string  `json:"type"`
    Title             string  `json:"title"`
    Message           string  `json:"message"`
    RequestID         uint64  `json:"request_id"`
    CropName          string  `json:"crop_name"`
    RequestedQuantity float64 `json:"requested_quantity"`
    Unit              string  `json:"unit"`
    BidPrice          float64 `json:"bid_price"`
    ReadFlag          int     `json:"read_flag"`
    CreatedAt         string  `json:"created_at"`
}

// Dispatcher persists notification rows and pushes live events. Both
// collaborators are injected; the dispatcher owns no state of its own.
type Dispatcher struct {
    Notifications *repository.NotificationRepo
    Hub           *live.Hub
}

// NewDispatcher constructs a Dispatcher. Both dependencies must be non-nil.
func NewDispatcher(repo *repository.NotificationRepo, hub *live.Hub) *Dispatcher {
    if repo == nil || hub == nil {
        panic("nil dependency passed to NewDispatcher")
    }
    return &Dispatcher{Notifications: repo, Hub: hub}
}

// Dispatch writes an unread notification row for userID and then
// pushes the matching live event to the user's room. The insert error
// is returned (the row is the durable source of truth); push problems
// never surface.
func (d *Dispatcher) Dispatch(ctx context.Context, userID uint64, kind, title, message string, info RequestInfo) (uint64, error) {
    reqID := info.RequestID
    id, err := d.Notifications.Insert(ctx, userID, kind, title, message, &reqID)
    if err != nil {
        return 0, err
    }
    d.Push(userID, id, kind, title, message, info, time.Now().UTC())
    return id, nil
}

// Push emits the newRequest event for a notification that has already
// been persisted (possibly inside a caller-owned transaction).
func (d *Dispatcher) Push(userID, notificationID uint64, kind, title, message string, info RequestInfo, createdAt time.Time) {
    d.Hub.Publish(live.Room(userID), EventNewRequest, requestEvent{
        ID:                notificationID,
        Type:              kind,
        Title:             title,
        Message:           message,
        RequestID:         info.RequestID,
        CropName:          info.CropName,
        RequestedQuantity: info.RequestedQuantity,
        Unit:              info.Unit,
        BidPrice:          info.BidPrice,
        ReadFlag:          0,
        CreatedAt:         createdAt.Format(time.RFC3339),
    })
}
