package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/cache"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/events"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// AddItemInput names exactly one catalog entry.
type AddItemInput struct {
	AssetID  string `json:"asset_id,omitempty"`
	BundleID string `json:"bundle_id,omitempty"`
	Quantity int    `json:"quantity"`
}

type CartService struct {
	store   repository.CartStore
	catalog repository.CatalogStore
	cache   cache.CartCache
	bus     events.Publisher
	log     zerolog.Logger
	sfg     singleflight.Group // Prevents cache stampede
	now     func() time.Time

	// generation per user, bumped on every invalidation
	genMu sync.Mutex
	gens  map[string]uint64
}

func NewCartService(
	store repository.CartStore,
	catalog repository.CatalogStore,
	c cache.CartCache,
	bus events.Publisher,
	log zerolog.Logger,
) *CartService {
	return &CartService{
		store:   store,
		catalog: catalog,
		cache:   c,
		bus:     bus,
		log:     log.With().Str("component", "cart_service").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
		gens:    make(map[string]uint64),
	}
}

// List returns the user's raw rows, served from cache when possible.
func (s *CartService) List(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	// reads that start after an invalidation never join a flight from before it
	gen := s.generation(userID)
	key := fmt.Sprintf("%s#%d", userID, gen)

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		items, err := s.cache.Get(ctx, userID)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("cache get error")
		}

		items, err = s.store.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []domain.CartLineItem{}
		}

		s.fillCache(userID, gen, items)

		return items, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.CartLineItem), nil
}

// Add validates the reference against the catalog and appends a new row.
// Adding the same asset twice yields two rows.
func (s *CartService) Add(ctx context.Context, userID string, in AddItemInput) (*domain.CartLineItem, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if in.Quantity < 1 || in.Quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	item := domain.CartLineItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		AssetID:   in.AssetID,
		BundleID:  in.BundleID,
		Quantity:  in.Quantity,
		CreatedAt: s.now(),
	}

	switch item.Reference() {
	case domain.ItemTypeAsset:
		if _, err := s.catalog.GetAsset(ctx, in.AssetID); err != nil {
			return nil, fmt.Errorf("asset %s: %w", in.AssetID, err)
		}
	case domain.ItemTypeBundle:
		if _, err := s.catalog.GetBundle(ctx, in.BundleID); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", in.BundleID, err)
		}
	default:
		return nil, ErrInvalidReference
	}

	if err := s.store.Add(ctx, item); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("repo add item error")
		return nil, err
	}

	s.invalidateCache(userID)
	s.publish(ctx, domain.EventCartItemAdded, userID, domain.CartItemEvent{
		ItemID:   item.ID,
		AssetID:  item.AssetID,
		BundleID: item.BundleID,
		Quantity: item.Quantity,
	})
	return &item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if userID == "" {
		return ErrMissingUser
	}
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}

	if err := s.store.UpdateQuantity(ctx, userID, itemID, quantity); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("item_id", itemID).Msg("repo update item quantity error")
		return err
	}

	s.invalidateCache(userID)
	s.publish(ctx, domain.EventCartItemUpdated, userID, domain.CartItemEvent{ItemID: itemID, Quantity: quantity})
	return nil
}

// Remove succeeds even when the row is already gone.
func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	if userID == "" {
		return ErrMissingUser
	}

	if err := s.store.Remove(ctx, userID, itemID); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("item_id", itemID).Msg("repo remove item error")
		return err
	}

	s.invalidateCache(userID)
	s.publish(ctx, domain.EventCartItemRemoved, userID, domain.CartItemEvent{ItemID: itemID})
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUser
	}

	if err := s.store.Clear(ctx, userID); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("repo clear cart error")
		return err
	}

	s.invalidateCache(userID)
	s.publish(ctx, domain.EventCartCleared, userID, nil)
	return nil
}

// fillCache stores rows read at generation gen. The write happens under genMu
// so an invalidation either sees it and deletes it, or bumps the generation
// first and the stale rows are dropped here.
func (s *CartService) fillCache(userID string, gen uint64, items []domain.CartLineItem) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[userID] != gen {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, userID, items); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("cache set error")
	}
}

func (s *CartService) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[userID]
}

func (s *CartService) invalidateCache(userID string) {
	s.genMu.Lock()
	s.gens[userID]++
	s.genMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("cache invalidate error")
	}
}

func (s *CartService) publish(ctx context.Context, t domain.EventType, userID string, payload any) {
	err := s.bus.Publish(ctx, domain.Event{
		Type:       t,
		UserID:     userID,
		Payload:    payload,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("event_type", string(t)).Msg("event publish error")
	}
}
