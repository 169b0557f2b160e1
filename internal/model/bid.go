package model

import "time"

// BidDelta is the half-width of the allowed band around a crop's
// base price. A bid must satisfy base-BidDelta <= bid <= base+BidDelta.
const BidDelta = 5.0

// Bid is an append-only price signal a dealer places against a crop,
// stored in the `bids` table. Bids have no lifecycle; they exist only
// so the highest offered price can be displayed next to a crop.
type Bid struct {
    ID        uint64    // bids.id
    CropID    uint64    // bids.crop_id
    DealerID  uint64    // bids.dealer_id
    BidPrice  float64   // bids.bid_price
    CreatedAt time.Time // bids.created_at
}

// BidBounds returns the inclusive [min,max] band a bid against the
// given base price must fall into.
func BidBounds(basePrice float64) (min, max float64) {
    return basePrice - BidDelta, basePrice + BidDelta
}

// BidInBand reports whether the bid price falls inside the band
// around the base price.
func BidInBand(basePrice, bidPrice float64) bool {
    min, max := BidBounds(basePrice)
    return bidPrice >= min && bidPrice <= max
}
