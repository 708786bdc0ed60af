package domain

import "time"

type PurchaseStatus string

const (
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseStatusCompleted, PurchaseStatusPending, PurchaseStatusFailed:
		return true
	}
	return false
}

// String representation (for logging)
func (s PurchaseStatus) String() string {
	return string(s)
}

// PurchaseRecord is an append-only ledger entry for one former cart line item.
// Amount is unit price times quantity at the time of purchase, in minor units.
type PurchaseRecord struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	AssetID    string         `json:"asset_id,omitempty"`
	BundleID   string         `json:"bundle_id,omitempty"`
	CartItemID string         `json:"cart_item_id"`
	Amount     int64          `json:"amount"`
	Status     PurchaseStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}
