package model

import "time"

// Request status values. A request is created pending and is decided
// exactly once: pending is the only non-terminal state.
const (
    RequestPending  = "pending"
    RequestAccepted = "accepted"
    RequestRejected = "rejected"
)

// Request is a dealer's structured purchase intent against a crop,
// stored in the `requests` table. The farmer decides the request by
// accepting or rejecting it; either decision is terminal.
//
// Fields:
//  ID                – primary key identifier.
//  CropID            – crop the dealer wants to buy (crops.id).
//  FarmerID          – crop owner at request time (users.id).
//  DealerID          – requesting dealer (users.id).
//  DealerPhone       – contact phone supplied with the request.
//  DealerAddress     – contact address supplied with the request.
//  RequestedQuantity – quantity the dealer asks for.
//  Unit              – unit of the requested quantity.
//  BidPrice          – price the dealer offers per unit.
//  Status            – pending | accepted | rejected.
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type Request struct {
    ID                uint64    // requests.id
    CropID            uint64    // requests.crop_id
    FarmerID          uint64    // requests.farmer_id
    DealerID          uint64    // requests.dealer_id
    DealerPhone       *string   // requests.dealer_phone (nullable)
    DealerAddress     *string   // requests.dealer_address (nullable)
    RequestedQuantity float64   // requests.requested_quantity
    Unit              string    // requests.unit
    BidPrice          float64   // requests.bid_price
    Status            string    // requests.status
    CreatedAt         time.Time // requests.created_at
    UpdatedAt         time.Time // requests.updated_at
}

// TerminalStatus reports whether a request status admits no further
// transitions.
func TerminalStatus(status string) bool {
    return status == RequestAccepted || status == RequestRejected
}

// ValidDecision reports whether the given status is a legal outcome
// of deciding a pending request.
func ValidDecision(status string) bool {
    return status == RequestAccepted || status == RequestRejected
}
