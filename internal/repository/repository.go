package repository

import (
	"context"
	"errors"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
)

var (
	ErrItemNotFound        = errors.New("item not found in cart")
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	ErrDuplicatePurchase   = errors.New("purchase for this cart item already exists")
	ErrInvalidStatus       = errors.New("invalid purchase status")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// CartStore holds per-user cart line items.
// Consumers define this interface, not the MongoDB implementation
type CartStore interface {
	// List returns the user's rows in insertion order.
	List(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	Add(ctx context.Context, item domain.CartLineItem) error
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error
	// Remove is a no-op when the row does not exist.
	Remove(ctx context.Context, userID, itemID string) error
	// Clear is a no-op when the cart is already empty.
	Clear(ctx context.Context, userID string) error
}

// CatalogStore is read-only from the cart's point of view.
type CatalogStore interface {
	ListAssets(ctx context.Context) ([]domain.CatalogAsset, error)
	ListBundles(ctx context.Context) ([]domain.CatalogBundle, error)
	GetAsset(ctx context.Context, id string) (*domain.CatalogAsset, error)
	GetBundle(ctx context.Context, id string) (*domain.CatalogBundle, error)
}

// PurchaseLedger is append-only.
type PurchaseLedger interface {
	Create(ctx context.Context, record *domain.PurchaseRecord) error
	ListByUser(ctx context.Context, userID string) ([]domain.PurchaseRecord, error)
}
