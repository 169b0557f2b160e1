// Package queue defines message payloads exchanged over the message broker.
package queue

// DealAcceptedEvent is published when a farmer accepts a purchase
// request. It carries enough information for the receipt writer (and
// any other consumer) to work without querying the primary database.
type DealAcceptedEvent struct {
    RequestID  uint64  `json:"request_id"`
    CropName   string  `json:"crop_name"`
    FarmerName string  `json:"farmer_name"`
    DealerName string  `json:"dealer_name"`
    Quantity   float64 `json:"quantity"`
    Unit       string  `json:"unit"`
    BidPrice   float64 `json:"bid_price"`
    ReceiptRef string  `json:"receipt_ref"`
    AcceptedAt string  `json:"accepted_at"`
}
