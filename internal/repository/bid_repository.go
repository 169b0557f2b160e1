package repository

import (
    "context"
    "database/sql"
)

// BidRepo persists the append-only bid records dealers place against
// crops. Bids carry no lifecycle; the only read is the per-crop
// maximum used for display.
type BidRepo struct {
    db *sql.DB
}

// NewBidRepo returns a new BidRepo bound to the given database.
func NewBidRepo(db *sql.DB) *BidRepo { return &BidRepo{db: db} }

// Create appends a bid row. Band validation happens in the handler,
// which has the crop's base price at hand.
func (r *BidRepo) Create(ctx context.Context, cropID, dealerID uint64, bidPrice float64) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO bids (crop_id, dealer_id, bid_price) VALUES (?,?,?)",
        cropID, dealerID, bidPrice)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// HighestForCrop returns MAX(bid_price) for the crop, or nil when the
// crop has no bids. Recomputed on every call.
func (r *BidRepo) HighestForCrop(ctx context.Context, cropID uint64) (*float64, error) {
    var highest sql.NullFloat64
    err := r.db.QueryRowContext(ctx,
        "SELECT MAX(bid_price) FROM bids WHERE crop_id=?", cropID).Scan(&highest)
    if err != nil {
        return nil, err
    }
    return nullFloat(highest), nil
}
