package service

import (
	"context"
	"sync"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/cache"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/repository"
)

type mockCartStore struct {
	m         sync.Mutex
	rows      map[string][]domain.CartLineItem
	listCalls int
	listErr   error
	addErr    error
	clearErr  error
	clears    int
}

func newMockCartStore(rows ...domain.CartLineItem) *mockCartStore {
	s := &mockCartStore{rows: make(map[string][]domain.CartLineItem)}
	for _, r := range rows {
		s.rows[r.UserID] = append(s.rows[r.UserID], r)
	}
	return s
}

func (m *mockCartStore) List(_ context.Context, userID string) ([]domain.CartLineItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.CartLineItem(nil), m.rows[userID]...), nil
}

func (m *mockCartStore) Add(_ context.Context, item domain.CartLineItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.rows[item.UserID] = append(m.rows[item.UserID], item)
	return nil
}

func (m *mockCartStore) UpdateQuantity(_ context.Context, userID, itemID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	for i := range m.rows[userID] {
		if m.rows[userID][i].ID == itemID {
			m.rows[userID][i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartStore) Remove(_ context.Context, userID, itemID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	rows := m.rows[userID]
	for i := range rows {
		if rows[i].ID == itemID {
			m.rows[userID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockCartStore) Clear(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.clears++
	delete(m.rows, userID)
	return nil
}

func (m *mockCartStore) rowsFor(userID string) []domain.CartLineItem {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]domain.CartLineItem(nil), m.rows[userID]...)
}

type mockCatalog struct {
	assets     []domain.CatalogAsset
	bundles    []domain.CatalogBundle
	err        error
	listCalls  int
	listCallsM sync.Mutex
}

func (m *mockCatalog) ListAssets(context.Context) ([]domain.CatalogAsset, error) {
	m.listCallsM.Lock()
	m.listCalls++
	m.listCallsM.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.assets, nil
}

func (m *mockCatalog) ListBundles(context.Context) ([]domain.CatalogBundle, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bundles, nil
}

func (m *mockCatalog) GetAsset(_ context.Context, id string) (*domain.CatalogAsset, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.assets {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, repository.ErrCatalogItemNotFound
}

func (m *mockCatalog) GetBundle(_ context.Context, id string) (*domain.CatalogBundle, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, b := range m.bundles {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, repository.ErrCatalogItemNotFound
}

func (m *mockCatalog) calls() int {
	m.listCallsM.Lock()
	defer m.listCallsM.Unlock()
	return m.listCalls
}

type mockCache struct {
	m       sync.RWMutex
	items   map[string][]domain.CartLineItem
	assets  []domain.CatalogAsset
	bundles []domain.CatalogBundle
	err     error
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string][]domain.CartLineItem)}
}

func (m *mockCache) Get(_ context.Context, userID string) ([]domain.CartLineItem, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	items, ok := m.items[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return items, nil
}

func (m *mockCache) Set(_ context.Context, userID string, items []domain.CartLineItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.items[userID] = items
	return m.err
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	delete(m.items, userID)
	return m.err
}

func (m *mockCache) GetAssets(context.Context) ([]domain.CatalogAsset, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.assets == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.assets, nil
}

func (m *mockCache) SetAssets(_ context.Context, assets []domain.CatalogAsset) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.assets = assets
	return nil
}

func (m *mockCache) GetBundles(context.Context) ([]domain.CatalogBundle, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.bundles == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.bundles, nil
}

func (m *mockCache) SetBundles(_ context.Context, bundles []domain.CatalogBundle) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.bundles = bundles
	return nil
}

func (m *mockCache) cached(userID string) ([]domain.CartLineItem, bool) {
	m.m.RLock()
	defer m.m.RUnlock()
	items, ok := m.items[userID]
	return items, ok
}

func (m *mockCache) cachedAssets() []domain.CatalogAsset {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.assets
}

func (m *mockCache) deleteCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.deletes
}

// mockLedger fails the Nth Create call (1-based) when failAt > 0.
type mockLedger struct {
	m       sync.Mutex
	records []domain.PurchaseRecord
	calls   int
	failAt  int
	err     error
}

func (m *mockLedger) Create(_ context.Context, r *domain.PurchaseRecord) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.failAt > 0 && m.calls == m.failAt {
		return m.err
	}
	for _, existing := range m.records {
		if existing.CartItemID == r.CartItemID {
			return repository.ErrDuplicatePurchase
		}
	}
	m.records = append(m.records, *r)
	return nil
}

func (m *mockLedger) ListByUser(_ context.Context, userID string) ([]domain.PurchaseRecord, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.PurchaseRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockBus struct {
	m      sync.Mutex
	events []domain.Event
	err    error
}

func (m *mockBus) Publish(_ context.Context, e domain.Event) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockBus) types() []domain.EventType {
	m.m.Lock()
	defer m.m.Unlock()
	out := make([]domain.EventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

func (m *mockBus) last() domain.Event {
	m.m.Lock()
	defer m.m.Unlock()
	return m.events[len(m.events)-1]
}

// slowSetCache delays every Set, or parks it until release is closed when set.
type slowSetCache struct {
	*mockCache
	delay   time.Duration
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowSetCache) Set(ctx context.Context, userID string, items []domain.CartLineItem) error {
	if s.entered != nil {
		s.once.Do(func() { close(s.entered) })
	}
	if s.release != nil {
		<-s.release
	}
	time.Sleep(s.delay)
	return s.mockCache.Set(ctx, userID, items)
}
