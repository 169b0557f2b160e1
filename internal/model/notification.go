package model

import "time"

// Notification types produced by the request workflow.
const (
    NotifDealerRequest = "dealer_request" // a dealer submitted a purchase request
    NotifDeal          = "deal"           // the farmer accepted the dealer's request
)

// Notification is a durable per-user event record stored in the
// `notifications` table. The row is the source of truth; the live
// websocket push is only a latency optimization for sessions that
// happen to be connected when the row is written. The read flag
// moves unread→read once and never reverts.
type Notification struct {
    ID        uint64    // notifications.id
    UserID    uint64    // notifications.user_id
    Type      string    // notifications.type
    Title     string    // notifications.title
    Message   string    // notifications.message
    RequestID *uint64   // notifications.request_id (nullable)
    Read      bool      // notifications.read_flag
    CreatedAt time.Time // notifications.created_at
}
