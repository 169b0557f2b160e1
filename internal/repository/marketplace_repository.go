package repository

import (
    "context"
    "database/sql"
    "time"
)

// MarketplaceRepo persists marketplace listings, the harvested-crop
// offers visible to dealers. A listing is a snapshot: crop_name and
// crop_pic are copied from the crop at harvest time.
type MarketplaceRepo struct {
    db *sql.DB
}

// NewMarketplaceRepo returns a new MarketplaceRepo bound to the given database.
func NewMarketplaceRepo(db *sql.DB) *MarketplaceRepo { return &MarketplaceRepo{db: db} }

// NewListing carries the attributes of a listing being created.
type NewListing struct {
    CropID      uint64
    CropName    string
    FarmerID    uint64
    Quantity    float64
    Price       float64
    CropPic     *string
    Discount    *float64
    MinQuantity *float64
}

// CreateTx inserts a listing within an existing transaction and
// returns its ID. Harvest pairs this with the crop's conditional
// harvested flip so the two writes commit or fail together.
func (r *MarketplaceRepo) CreateTx(ctx context.Context, tx *sql.Tx, l NewListing) (uint64, error) {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO marketplace
           (crop_id, crop_name, farmer_id, quantity, price, crop_pic, discount, min_quantity)
         VALUES (?,?,?,?,?,?,?,?)`,
        l.CropID, l.CropName, l.FarmerID, l.Quantity, l.Price, l.CropPic, l.Discount, l.MinQuantity)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// ListingRow is the JSON shape of a marketplace listing.
type ListingRow struct {
    ID          uint64   `json:"id"`
    CropID      uint64   `json:"crop_id"`
    CropName    string   `json:"crop_name"`
    FarmerID    uint64   `json:"farmer_id"`
    FarmerName  string   `json:"farmer_name,omitempty"`
    Quantity    float64  `json:"quantity"`
    Price       float64  `json:"price"`
    CropPic     *string  `json:"crop_pic"`
    Discount    *float64 `json:"discount"`
    MinQuantity *float64 `json:"min_quantity"`
    CreatedAt   string   `json:"created_at"`
}

// ListByFarmer returns a farmer's own listings, newest first.
func (r *MarketplaceRepo) ListByFarmer(ctx context.Context, farmerID uint64) ([]ListingRow, error) {
    const q = `SELECT id, crop_id, crop_name, farmer_id, quantity, price, crop_pic, discount, min_quantity, created_at
               FROM marketplace WHERE farmer_id=? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, farmerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectListings(rows, false)
}

// ListPublic returns every listing joined with the farmer's name for
// the public browse view.
func (r *MarketplaceRepo) ListPublic(ctx context.Context) ([]ListingRow, error) {
    const q = `SELECT m.id, m.crop_id, m.crop_name, m.farmer_id, m.quantity, m.price, m.crop_pic,
                      m.discount, m.min_quantity, m.created_at, u.name
               FROM marketplace m
               JOIN users u ON u.id = m.farmer_id
               ORDER BY m.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectListings(rows, true)
}

func collectListings(rows *sql.Rows, withFarmer bool) ([]ListingRow, error) {
    out := []ListingRow{}
    for rows.Next() {
        var l ListingRow
        var pic sql.NullString
        var discount, minQty sql.NullFloat64
        var createdAt sql.NullTime
        dest := []interface{}{&l.ID, &l.CropID, &l.CropName, &l.FarmerID, &l.Quantity, &l.Price, &pic, &discount, &minQty, &createdAt}
        if withFarmer {
            dest = append(dest, &l.FarmerName)
        }
        if err := rows.Scan(dest...); err != nil {
            return nil, err
        }
        l.CropPic = nullStr(pic)
        l.Discount = nullFloat(discount)
        l.MinQuantity = nullFloat(minQty)
        if createdAt.Valid {
            l.CreatedAt = createdAt.Time.UTC().Format(time.RFC3339)
        }
        out = append(out, l)
    }
    return out, rows.Err()
}
