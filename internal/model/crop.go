package model

import "time"

// Crop is a farmer-owned cultivation record as stored in the `crops`
// table. A crop starts out unharvested; harvesting flips the
// Harvested flag exactly once and produces a marketplace listing
// snapshot. The flag never reverts.
//
// Fields:
//  ID            – primary key identifier.
//  FarmerID      – owning farmer (users.id).
//  Name          – crop name (e.g. "Rice").
//  Quantity      – available quantity, nullable until known.
//  Unit          – measurement unit such as "kg".
//  BasePrice     – asking price per unit; anchors the bid band.
//  TotalCost     – cultivation cost entered by the farmer.
//  LandSize      – cultivated land size.
//  CultivateDate – date cultivation started.
//  HarvestDate   – expected harvest date.
//  CropPic       – optional picture reference.
//  Harvested     – whether the crop has been moved to the marketplace.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type Crop struct {
    ID            uint64     // crops.id
    FarmerID      uint64     // crops.farmer_id
    Name          string     // crops.name
    Quantity      *float64   // crops.quantity (nullable)
    Unit          *string    // crops.unit (nullable)
    BasePrice     *float64   // crops.base_price (nullable)
    TotalCost     *float64   // crops.total_cost (nullable)
    LandSize      *float64   // crops.land_size (nullable)
    CultivateDate *string    // crops.cultivate_date (nullable)
    HarvestDate   *string    // crops.harvest_date (nullable)
    CropPic       *string    // crops.crop_pic (nullable)
    Harvested     bool       // crops.harvested
    CreatedAt     time.Time  // crops.created_at
    UpdatedAt     time.Time  // crops.updated_at
}

// MarketplaceListing is a harvested crop's marketplace-visible offer,
// stored in the `marketplace` table. CropName and CropPic are copied
// from the crop at harvest time so later crop edits do not rewrite
// history.
type MarketplaceListing struct {
    ID          uint64    // marketplace.id
    CropID      uint64    // marketplace.crop_id
    CropName    string    // marketplace.crop_name
    FarmerID    uint64    // marketplace.farmer_id
    Quantity    float64   // marketplace.quantity
    Price       float64   // marketplace.price
    CropPic     *string   // marketplace.crop_pic (nullable)
    Discount    *float64  // marketplace.discount (nullable)
    MinQuantity *float64  // marketplace.min_quantity (nullable)
    CreatedAt   time.Time // marketplace.created_at
}
