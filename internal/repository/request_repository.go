package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/agrolink/farm-marketplace/internal/model"
)

// RequestRepo provides persistence for dealer purchase requests and
// their decision workflow. A request starts pending and is decided
// exactly once; the transition is guarded by a state-checked update
// rather than a blind write.
type RequestRepo struct {
    db *sql.DB
}

// NewRequestRepo returns a new RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning requests and notifications.
func (r *RequestRepo) DB() *sql.DB { return r.db }

// NewRequest carries the attributes of a request being created.
type NewRequest struct {
    CropID            uint64
    FarmerID          uint64
    DealerID          uint64
    DealerPhone       *string
    DealerAddress     *string
    RequestedQuantity float64
    Unit              string
    BidPrice          float64
}

// Create inserts a pending request and returns its ID.
func (r *RequestRepo) Create(ctx context.Context, req NewRequest) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO requests
           (crop_id, farmer_id, dealer_id, dealer_phone, dealer_address, requested_quantity, unit, bid_price, status)
         VALUES (?,?,?,?,?,?,?,?,?)`,
        req.CropID, req.FarmerID, req.DealerID, req.DealerPhone, req.DealerAddress,
        req.RequestedQuantity, req.Unit, req.BidPrice, model.RequestPending)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByIDTx loads the core request row inside a transaction.
func (r *RequestRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Request, error) {
    var req model.Request
    var phone, address sql.NullString
    err := tx.QueryRowContext(ctx,
        `SELECT id, crop_id, farmer_id, dealer_id, dealer_phone, dealer_address,
                requested_quantity, unit, bid_price, status, created_at, updated_at
         FROM requests WHERE id=? LIMIT 1`, id).
        Scan(&req.ID, &req.CropID, &req.FarmerID, &req.DealerID, &phone, &address,
            &req.RequestedQuantity, &req.Unit, &req.BidPrice, &req.Status, &req.CreatedAt, &req.UpdatedAt)
    if err == sql.ErrNoRows {
        return req, ErrNotFound
    }
    if err != nil {
        return req, err
    }
    req.DealerPhone = nullStr(phone)
    req.DealerAddress = nullStr(address)
    return req, nil
}

// DecideTx transitions a pending request to the given terminal status
// within an existing transaction. The write is conditioned on
// status='pending', so of two concurrent decisions only one can win.
// It returns the decided request, or ErrNotFound when the request is
// absent, ErrForbidden when the crop does not belong to farmerID, and
// ErrInvalidState when the request was already decided.
func (r *RequestRepo) DecideTx(ctx context.Context, tx *sql.Tx, requestID, farmerID uint64, status string) (model.Request, error) {
    if !model.ValidDecision(status) {
        return model.Request{}, ErrInvalidState
    }
    req, err := r.GetByIDTx(ctx, tx, requestID)
    if err != nil {
        return model.Request{}, err
    }
    if req.FarmerID != farmerID {
        return model.Request{}, ErrForbidden
    }
    res, err := tx.ExecContext(ctx,
        "UPDATE requests SET status=? WHERE id=? AND status=?",
        status, requestID, model.RequestPending)
    if err != nil {
        return model.Request{}, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return model.Request{}, err
    }
    if n == 0 {
        // The row exists but was already terminal.
        return model.Request{}, ErrInvalidState
    }
    req.Status = status
    return req, nil
}

// RequestDetail is a request joined with the people and crop it
// references, shaped for the detail endpoint and receipt generation.
type RequestDetail struct {
    ID                uint64   `json:"id"`
    CropID            uint64   `json:"crop_id"`
    FarmerID          uint64   `json:"farmer_id"`
    DealerID          uint64   `json:"dealer_id"`
    RequestedQuantity float64  `json:"requested_quantity"`
    Unit              string   `json:"unit"`
    BidPrice          float64  `json:"bid_price"`
    Status            string   `json:"status"`
    CreatedAt         string   `json:"created_at"`
    CropName          string   `json:"crop_name"`
    DealerName        string   `json:"dealer_name"`
    DealerEmail       string   `json:"dealer_email"`
    DealerPhone       *string  `json:"dealer_phone"`
    DealerAddress     *string  `json:"dealer_address"`
    FarmerName        string   `json:"farmer_name"`
    FarmerEmail       string   `json:"farmer_email"`
    FarmerPhone       string   `json:"farmer_phone"`
    FarmerAddress     string   `json:"farmer_address"`
}

// GetDetail loads a request with dealer, farmer and crop fields
// denormalized for display. Returns ErrNotFound when absent.
func (r *RequestRepo) GetDetail(ctx context.Context, id uint64) (RequestDetail, error) {
    const q = `SELECT r.id, r.crop_id, r.farmer_id, r.dealer_id, r.requested_quantity, r.unit, r.bid_price,
                      r.status, r.created_at, r.dealer_phone, r.dealer_address,
                      c.name,
                      d.name, d.email,
                      f.name, f.email, f.phone, f.address
               FROM requests r
               JOIN crops c ON c.id = r.crop_id
               JOIN users d ON d.id = r.dealer_id
               JOIN users f ON f.id = r.farmer_id
               WHERE r.id = ?`
    var det RequestDetail
    var phone, address sql.NullString
    var createdAt time.Time
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &det.ID, &det.CropID, &det.FarmerID, &det.DealerID, &det.RequestedQuantity, &det.Unit, &det.BidPrice,
        &det.Status, &createdAt, &phone, &address,
        &det.CropName,
        &det.DealerName, &det.DealerEmail,
        &det.FarmerName, &det.FarmerEmail, &det.FarmerPhone, &det.FarmerAddress,
    )
    if err == sql.ErrNoRows {
        return det, ErrNotFound
    }
    if err != nil {
        return det, err
    }
    det.DealerPhone = nullStr(phone)
    det.DealerAddress = nullStr(address)
    det.CreatedAt = createdAt.UTC().Format(time.RFC3339)
    return det, nil
}
