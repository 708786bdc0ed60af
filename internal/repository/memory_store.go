package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
)

// MemoryStore implements CartStore, CatalogStore and PurchaseLedger in memory.
// Used for STORAGE_BACKEND=memory and in handler tests.
type MemoryStore struct {
	mu         sync.RWMutex
	carts      map[string][]domain.CartLineItem // userID -> rows in insertion order
	purchases  []domain.PurchaseRecord
	byCartItem map[string]struct{}
	assets     map[string]domain.CatalogAsset
	bundles    map[string]domain.CatalogBundle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:      make(map[string][]domain.CartLineItem),
		byCartItem: make(map[string]struct{}),
		assets:     make(map[string]domain.CatalogAsset),
		bundles:    make(map[string]domain.CatalogBundle),
	}
}

// SetAsset adds or replaces a catalog asset (used for initialization)
func (s *MemoryStore) SetAsset(a domain.CatalogAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.assets[a.ID] = a
}

// SetBundle adds or replaces a catalog bundle (used for initialization)
func (s *MemoryStore) SetBundle(b domain.CatalogBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.bundles[b.ID] = b
}

// DeleteAsset removes an asset from the catalog, leaving cart rows pointing at it dangling.
func (s *MemoryStore) DeleteAsset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, id)
}

func (s *MemoryStore) List(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.carts[userID]), nil
}

func (s *MemoryStore) Add(ctx context.Context, item domain.CartLineItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.carts[item.UserID] = append(s.carts[item.UserID], item)
	return nil
}

func (s *MemoryStore) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.carts[userID]
	for i := range rows {
		if rows[i].ID == itemID {
			rows[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *MemoryStore) Remove(ctx context.Context, userID, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = slices.DeleteFunc(s.carts[userID], func(it domain.CartLineItem) bool {
		return it.ID == itemID
	})
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

func (s *MemoryStore) ListAssets(ctx context.Context) ([]domain.CatalogAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogAsset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y domain.CatalogAsset) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(x.ID, y.ID)
	})
	return out, nil
}

func (s *MemoryStore) ListBundles(ctx context.Context) ([]domain.CatalogBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogBundle, 0, len(s.bundles))
	for _, b := range s.bundles {
		out = append(out, b)
	}
	slices.SortFunc(out, func(x, y domain.CatalogBundle) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(x.ID, y.ID)
	})
	return out, nil
}

func (s *MemoryStore) GetAsset(ctx context.Context, id string) (*domain.CatalogAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, ErrCatalogItemNotFound
	}
	return &a, nil
}

func (s *MemoryStore) GetBundle(ctx context.Context, id string) (*domain.CatalogBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[id]
	if !ok {
		return nil, ErrCatalogItemNotFound
	}
	return &b, nil
}

func (s *MemoryStore) Create(ctx context.Context, record *domain.PurchaseRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !record.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, record.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byCartItem[record.CartItemID]; exists {
		return ErrDuplicatePurchase
	}
	s.byCartItem[record.CartItemID] = struct{}{}
	s.purchases = append(s.purchases, *record)
	return nil
}

// ListByUser returns newest first, matching the Postgres ledger.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]domain.PurchaseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PurchaseRecord, 0)
	for i := len(s.purchases) - 1; i >= 0; i-- {
		if s.purchases[i].UserID == userID {
			out = append(out, s.purchases[i])
		}
	}
	return out, nil
}
