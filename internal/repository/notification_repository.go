package repository

import (
    "context"
    "database/sql"
    "time"
)

// NotificationRepo persists per-user notification records. The row is
// the durable source of truth for the workflow; the live websocket
// push layered on top is best effort only.
type NotificationRepo struct {
    db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Insert writes an unread notification and returns its ID.
func (r *NotificationRepo) Insert(ctx context.Context, userID uint64, kind, title, message string, requestID *uint64) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO notifications (user_id, type, title, message, request_id, read_flag) VALUES (?,?,?,?,?,0)",
        userID, kind, title, message, requestID)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// InsertTx is Insert within an existing transaction, used when the
// notification must commit together with a request decision.
func (r *NotificationRepo) InsertTx(ctx context.Context, tx *sql.Tx, userID uint64, kind, title, message string, requestID *uint64) (uint64, error) {
    res, err := tx.ExecContext(ctx,
        "INSERT INTO notifications (user_id, type, title, message, request_id, read_flag) VALUES (?,?,?,?,?,0)",
        userID, kind, title, message, requestID)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// NotificationDetail is a notification enriched with request and crop
// fields for display, newest first in listings.
type NotificationDetail struct {
    ID                uint64   `json:"id"`
    UserID            uint64   `json:"user_id"`
    Type              string   `json:"type"`
    Title             string   `json:"title"`
    Message           string   `json:"message"`
    RequestID         *uint64  `json:"request_id"`
    ReadFlag          int      `json:"read_flag"`
    CreatedAt         string   `json:"created_at"`
    CropID            *uint64  `json:"crop_id"`
    CropName          *string  `json:"crop_name"`
    DealerName        *string  `json:"dealer_name"`
    RequestedQuantity *float64 `json:"requested_quantity"`
    Unit              *string  `json:"unit"`
    BidPrice          *float64 `json:"bid_price"`
}

// ListByUser returns all notifications for userID newest first, each
// enriched via LEFT JOINs, plus the count of unread rows.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64) ([]NotificationDetail, int, error) {
    const q = `SELECT n.id, n.user_id, n.type, n.title, n.message, n.request_id, n.read_flag, n.created_at,
                      r.crop_id, r.requested_quantity, r.unit, r.bid_price,
                      u.name, c.name
               FROM notifications n
               LEFT JOIN requests r ON n.request_id = r.id
               LEFT JOIN users u ON r.dealer_id = u.id
               LEFT JOIN crops c ON r.crop_id = c.id
               WHERE n.user_id = ?
               ORDER BY n.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := []NotificationDetail{}
    for rows.Next() {
        var n NotificationDetail
        var requestID, cropID sql.NullInt64
        var qty, bid sql.NullFloat64
        var unit, dealerName, cropName sql.NullString
        var createdAt time.Time
        if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &requestID, &n.ReadFlag, &createdAt,
            &cropID, &qty, &unit, &bid, &dealerName, &cropName); err != nil {
            return nil, 0, err
        }
        if requestID.Valid {
            id := uint64(requestID.Int64)
            n.RequestID = &id
        }
        if cropID.Valid {
            id := uint64(cropID.Int64)
            n.CropID = &id
        }
        n.RequestedQuantity = nullFloat(qty)
        n.BidPrice = nullFloat(bid)
        n.Unit = nullStr(unit)
        n.DealerName = nullStr(dealerName)
        n.CropName = nullStr(cropName)
        n.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        out = append(out, n)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }

    var unread int
    err = r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM notifications WHERE user_id=? AND read_flag=0", userID).Scan(&unread)
    if err != nil {
        return nil, 0, err
    }
    return out, unread, nil
}

// MarkRead flips read_flag to 1 for a notification owned by userID.
// The transition is idempotent: marking an already-read row succeeds
// and changes nothing. Returns ErrNotFound when the row is absent and
// ErrForbidden when it belongs to a different user.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID uint64) error {
    var owner uint64
    err := r.db.QueryRowContext(ctx,
        "SELECT user_id FROM notifications WHERE id=? LIMIT 1", notificationID).Scan(&owner)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    if err != nil {
        return err
    }
    if owner != userID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx,
        "UPDATE notifications SET read_flag=1 WHERE id=?", notificationID)
    return err
}
