package domain

import "time"

type ItemType string

const (
	ItemTypeAsset   ItemType = "asset"
	ItemTypeBundle  ItemType = "bundle"
	ItemTypeUnknown ItemType = "unknown"
)

const (
	UnknownAssetName  = "Unknown Asset"
	UnknownBundleName = "Unknown Bundle"
	UnknownItemName   = "Unknown Item"
)

// CartLineItem is one row of a user's cart. Exactly one of AssetID and BundleID is set.
type CartLineItem struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	AssetID   string    `bson:"asset_id,omitempty" json:"asset_id,omitempty"`
	BundleID  string    `bson:"bundle_id,omitempty" json:"bundle_id,omitempty"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Reference reports which catalog collection the row points at.
// Rows with both or neither id set are ItemTypeUnknown.
func (c CartLineItem) Reference() ItemType {
	switch {
	case c.AssetID != "" && c.BundleID == "":
		return ItemTypeAsset
	case c.BundleID != "" && c.AssetID == "":
		return ItemTypeBundle
	default:
		return ItemTypeUnknown
	}
}

// EnhancedCartItem is a line item joined with its catalog display fields.
// It is derived on every read and never stored.
type EnhancedCartItem struct {
	CartLineItem
	Name      string   `json:"name"`
	Price     int64    `json:"price"`
	Thumbnail string   `json:"thumbnail"`
	Type      ItemType `json:"type"`
}

func (e EnhancedCartItem) LineTotal() int64 {
	return e.Price * int64(e.Quantity)
}

// CartView is the aggregated, display-ready cart.
type CartView struct {
	Items           []EnhancedCartItem `json:"items"`
	ItemCount       int                `json:"item_count"`
	TotalPrice      int64              `json:"total_price"`
	IsEmpty         bool               `json:"is_empty"`
	CatalogDegraded bool               `json:"catalog_degraded,omitempty"`
}
