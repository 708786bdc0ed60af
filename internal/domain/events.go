package domain

import "time"

type EventType string

const (
	EventCartItemAdded     EventType = "cart.item.added"
	EventCartItemUpdated   EventType = "cart.item.updated"
	EventCartItemRemoved   EventType = "cart.item.removed"
	EventCartCleared       EventType = "cart.cleared"
	EventCheckoutCompleted EventType = "checkout.completed"
)

// Event is what the bus carries. Payload must be JSON-serialisable.
type Event struct {
	Type       EventType `json:"event_type"`
	UserID     string    `json:"user_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type CartItemEvent struct {
	ItemID   string `json:"item_id"`
	AssetID  string `json:"asset_id,omitempty"`
	BundleID string `json:"bundle_id,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

type CheckoutCompletedEvent struct {
	PurchaseIDs []string `json:"purchase_ids"`
	TotalAmount int64    `json:"total_amount"`
	ItemCount   int      `json:"item_count"`
}
