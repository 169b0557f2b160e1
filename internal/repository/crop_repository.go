package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/agrolink/farm-marketplace/internal/model"
)

// CropRepo provides persistence for crops, the farmer-owned
// cultivation records that precede a marketplace listing. All
// timestamp columns are stored in UTC.
type CropRepo struct {
    db *sql.DB
}

// NewCropRepo returns a new CropRepo bound to the given database.
func NewCropRepo(db *sql.DB) *CropRepo { return &CropRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning several repositories.
func (r *CropRepo) DB() *sql.DB { return r.db }

// NewCrop carries the caller-supplied attributes of a crop being
// created. Nil pointers become NULL columns.
type NewCrop struct {
    FarmerID      uint64
    Name          string
    Quantity      *float64
    Unit          *string
    BasePrice     *float64
    TotalCost     *float64
    LandSize      *float64
    CultivateDate *string
    HarvestDate   *string
    CropPic       *string
}

// Create inserts a crop and returns its ID.
func (r *CropRepo) Create(ctx context.Context, c NewCrop) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO crops
           (farmer_id, name, quantity, unit, base_price, total_cost, land_size, cultivate_date, harvest_date, crop_pic)
         VALUES (?,?,?,?,?,?,?,?,?,?)`,
        c.FarmerID, c.Name, c.Quantity, c.Unit, c.BasePrice, c.TotalCost, c.LandSize, c.CultivateDate, c.HarvestDate, c.CropPic)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// CreateTx is Create within the scope of an existing transaction,
// used by the direct-to-marketplace flow.
func (r *CropRepo) CreateTx(ctx context.Context, tx *sql.Tx, c NewCrop) (uint64, error) {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO crops
           (farmer_id, name, quantity, unit, base_price, total_cost, land_size, cultivate_date, harvest_date, crop_pic)
         VALUES (?,?,?,?,?,?,?,?,?,?)`,
        c.FarmerID, c.Name, c.Quantity, c.Unit, c.BasePrice, c.TotalCost, c.LandSize, c.CultivateDate, c.HarvestDate, c.CropPic)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

const cropColumns = `id, farmer_id, name, quantity, unit, base_price, total_cost, land_size,
       cultivate_date, harvest_date, crop_pic, harvested, created_at, updated_at`

func scanCrop(row *sql.Row) (model.Crop, error) {
    var c model.Crop
    var quantity, basePrice, totalCost, landSize sql.NullFloat64
    var unit, cultivateDate, harvestDate, cropPic sql.NullString
    err := row.Scan(&c.ID, &c.FarmerID, &c.Name, &quantity, &unit, &basePrice, &totalCost, &landSize,
        &cultivateDate, &harvestDate, &cropPic, &c.Harvested, &c.CreatedAt, &c.UpdatedAt)
    if err == sql.ErrNoRows {
        return c, ErrNotFound
    }
    if err != nil {
        return c, err
    }
    c.Quantity = nullFloat(quantity)
    c.Unit = nullStr(unit)
    c.BasePrice = nullFloat(basePrice)
    c.TotalCost = nullFloat(totalCost)
    c.LandSize = nullFloat(landSize)
    c.CultivateDate = nullStr(cultivateDate)
    c.HarvestDate = nullStr(harvestDate)
    c.CropPic = nullStr(cropPic)
    return c, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
    if v.Valid {
        f := v.Float64
        return &f
    }
    return nil
}

func nullStr(v sql.NullString) *string {
    if v.Valid {
        s := v.String
        return &s
    }
    return nil
}

// GetByID returns a crop or ErrNotFound.
func (r *CropRepo) GetByID(ctx context.Context, id uint64) (model.Crop, error) {
    row := r.db.QueryRowContext(ctx, "SELECT "+cropColumns+" FROM crops WHERE id=? LIMIT 1", id)
    return scanCrop(row)
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *CropRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Crop, error) {
    row := tx.QueryRowContext(ctx, "SELECT "+cropColumns+" FROM crops WHERE id=? LIMIT 1", id)
    return scanCrop(row)
}

// CropRow is the JSON shape of a crop returned by listing endpoints.
type CropRow struct {
    ID            uint64   `json:"id"`
    FarmerID      uint64   `json:"farmer_id"`
    Name          string   `json:"name"`
    Quantity      *float64 `json:"quantity"`
    Unit          *string  `json:"unit"`
    BasePrice     *float64 `json:"base_price"`
    TotalCost     *float64 `json:"total_cost"`
    LandSize      *float64 `json:"land_size"`
    CultivateDate *string  `json:"cultivate_date"`
    HarvestDate   *string  `json:"harvest_date"`
    CropPic       *string  `json:"crop_pic"`
    Harvested     bool     `json:"harvested"`
    CreatedAt     string   `json:"created_at"`
}

// ListUnharvestedByFarmer returns a farmer's crops that have not been
// harvested yet, newest first.
func (r *CropRepo) ListUnharvestedByFarmer(ctx context.Context, farmerID uint64) ([]CropRow, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+cropColumns+" FROM crops WHERE farmer_id=? AND harvested=0 ORDER BY created_at DESC",
        farmerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectCropRows(rows)
}

func collectCropRows(rows *sql.Rows) ([]CropRow, error) {
    out := []CropRow{}
    for rows.Next() {
        var c CropRow
        var quantity, basePrice, totalCost, landSize sql.NullFloat64
        var unit, cultivateDate, harvestDate, cropPic sql.NullString
        var harvested bool
        var createdAt, updatedAt sql.NullTime
        if err := rows.Scan(&c.ID, &c.FarmerID, &c.Name, &quantity, &unit, &basePrice, &totalCost, &landSize,
            &cultivateDate, &harvestDate, &cropPic, &harvested, &createdAt, &updatedAt); err != nil {
            return nil, err
        }
        c.Quantity = nullFloat(quantity)
        c.Unit = nullStr(unit)
        c.BasePrice = nullFloat(basePrice)
        c.TotalCost = nullFloat(totalCost)
        c.LandSize = nullFloat(landSize)
        c.CultivateDate = nullStr(cultivateDate)
        c.HarvestDate = nullStr(harvestDate)
        c.CropPic = nullStr(cropPic)
        c.Harvested = harvested
        if createdAt.Valid {
            c.CreatedAt = createdAt.Time.UTC().Format(time.RFC3339)
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// CropRequestRow is a request shown inline under a crop in the
// dealer-facing browse view.
type CropRequestRow struct {
    ID                uint64  `json:"id"`
    DealerID          uint64  `json:"dealer_id"`
    DealerName        string  `json:"dealer_name"`
    RequestedQuantity float64 `json:"requested_quantity"`
    Unit              string  `json:"unit"`
    BidPrice          float64 `json:"bid_price"`
    Status            string  `json:"status"`
}

// CropWithBids is a crop enriched with its farmer's name, the highest
// bid placed against it, and its purchase requests.
type CropWithBids struct {
    CropRow
    FarmerName string           `json:"farmer_name"`
    HighestBid *float64         `json:"highest_bid"`
    Requests   []CropRequestRow `json:"requests"`
}

// ListWithBids returns all crops newest first, each with the owning
// farmer's name, the highest bid recomputed from the bids table, and
// the inline purchase requests. The aggregation is a fresh query per
// call; nothing is cached at this layer.
func (r *CropRepo) ListWithBids(ctx context.Context) ([]CropWithBids, error) {
    const q = `SELECT c.id, c.farmer_id, c.name, c.quantity, c.unit, c.base_price, c.total_cost, c.land_size,
                      c.cultivate_date, c.harvest_date, c.crop_pic, c.harvested, c.created_at, c.updated_at,
                      u.name,
                      (SELECT MAX(b.bid_price) FROM bids b WHERE b.crop_id = c.id)
               FROM crops c
               JOIN users u ON u.id = c.farmer_id
               ORDER BY c.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := []CropWithBids{}
    for rows.Next() {
        var c CropWithBids
        var quantity, basePrice, totalCost, landSize, highest sql.NullFloat64
        var unit, cultivateDate, harvestDate, cropPic sql.NullString
        var createdAt, updatedAt sql.NullTime
        if err := rows.Scan(&c.ID, &c.FarmerID, &c.Name, &quantity, &unit, &basePrice, &totalCost, &landSize,
            &cultivateDate, &harvestDate, &cropPic, &c.Harvested, &createdAt, &updatedAt,
            &c.FarmerName, &highest); err != nil {
            return nil, err
        }
        c.Quantity = nullFloat(quantity)
        c.Unit = nullStr(unit)
        c.BasePrice = nullFloat(basePrice)
        c.TotalCost = nullFloat(totalCost)
        c.LandSize = nullFloat(landSize)
        c.CultivateDate = nullStr(cultivateDate)
        c.HarvestDate = nullStr(harvestDate)
        c.CropPic = nullStr(cropPic)
        c.HighestBid = nullFloat(highest)
        if createdAt.Valid {
            c.CreatedAt = createdAt.Time.UTC().Format(time.RFC3339)
        }
        c.Requests = []CropRequestRow{}
        out = append(out, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    for i := range out {
        reqs, err := r.listRequestsForCrop(ctx, out[i].ID)
        if err != nil {
            return nil, err
        }
        out[i].Requests = reqs
    }
    return out, nil
}

func (r *CropRepo) listRequestsForCrop(ctx context.Context, cropID uint64) ([]CropRequestRow, error) {
    const q = `SELECT r.id, r.dealer_id, u.name, r.requested_quantity, r.unit, r.bid_price, r.status
               FROM requests r
               JOIN users u ON u.id = r.dealer_id
               WHERE r.crop_id = ?
               ORDER BY r.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, cropID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []CropRequestRow{}
    for rows.Next() {
        var rr CropRequestRow
        if err := rows.Scan(&rr.ID, &rr.DealerID, &rr.DealerName, &rr.RequestedQuantity, &rr.Unit, &rr.BidPrice, &rr.Status); err != nil {
            return nil, err
        }
        out = append(out, rr)
    }
    return out, rows.Err()
}

// CropPatch carries the optional fields of a partial crop update.
// Nil values leave the stored column unchanged.
type CropPatch struct {
    Name      *string
    Quantity  *float64
    Unit      *string
    BasePrice *float64
    TotalCost *float64
}

// UpdateOwned patches a crop after verifying ownership. Returns
// ErrNotFound when the crop is absent and ErrForbidden when it
// belongs to a different farmer.
func (r *CropRepo) UpdateOwned(ctx context.Context, cropID, farmerID uint64, p CropPatch) error {
    var owner uint64
    err := r.db.QueryRowContext(ctx, "SELECT farmer_id FROM crops WHERE id=? LIMIT 1", cropID).Scan(&owner)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    if err != nil {
        return err
    }
    if owner != farmerID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx,
        `UPDATE crops
         SET name = COALESCE(?, name),
             quantity = COALESCE(?, quantity),
             unit = COALESCE(?, unit),
             base_price = COALESCE(?, base_price),
             total_cost = COALESCE(?, total_cost)
         WHERE id = ?`,
        p.Name, p.Quantity, p.Unit, p.BasePrice, p.TotalCost, cropID)
    return err
}

// DeleteOwned removes a crop after verifying ownership. Deletion is
// refused with ErrConflict while requests or bids still reference the
// crop, so no dangling paperwork is left behind.
func (r *CropRepo) DeleteOwned(ctx context.Context, cropID, farmerID uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var owner uint64
    err = tx.QueryRowContext(ctx, "SELECT farmer_id FROM crops WHERE id=? LIMIT 1", cropID).Scan(&owner)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    if err != nil {
        return err
    }
    if owner != farmerID {
        return ErrForbidden
    }

    var dependents int
    err = tx.QueryRowContext(ctx,
        `SELECT (SELECT COUNT(*) FROM requests WHERE crop_id=?) + (SELECT COUNT(*) FROM bids WHERE crop_id=?)`,
        cropID, cropID).Scan(&dependents)
    if err != nil {
        return err
    }
    if dependents > 0 {
        return ErrConflict
    }

    if _, err := tx.ExecContext(ctx, "DELETE FROM marketplace WHERE crop_id=?", cropID); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, "DELETE FROM crops WHERE id=?", cropID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// MarkHarvestedTx flips crops.harvested from 0 to 1 within the given
// transaction. The conditional write is the race guard: of two
// concurrent harvest calls only one can affect a row; the other gets
// ErrInvalidState.
func (r *CropRepo) MarkHarvestedTx(ctx context.Context, tx *sql.Tx, cropID uint64) error {
    res, err := tx.ExecContext(ctx, "UPDATE crops SET harvested=1 WHERE id=? AND harvested=0", cropID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrInvalidState
    }
    return nil
}
