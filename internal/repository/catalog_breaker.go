package repository

import (
	"context"
	"errors"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/sony/gobreaker/v2"
)

var ErrCatalogUnavailable = errors.New("catalog temporarily unavailable")

type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// BreakingCatalogStore trips after ConsecutiveFailures backend errors and
// fails fast with ErrCatalogUnavailable until OpenTimeout elapses.
type BreakingCatalogStore struct {
	next CatalogStore
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakingCatalogStore(next CatalogStore, cfg BreakerSettings) *BreakingCatalogStore {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// a missing row or a caller giving up says nothing about backend health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrCatalogItemNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})

	return &BreakingCatalogStore{next: next, cb: cb}
}

func (b *BreakingCatalogStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakingCatalogStore) ListAssets(ctx context.Context) ([]domain.CatalogAsset, error) {
	v, err := b.execute(func() (any, error) { return b.next.ListAssets(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]domain.CatalogAsset), nil
}

func (b *BreakingCatalogStore) ListBundles(ctx context.Context) ([]domain.CatalogBundle, error) {
	v, err := b.execute(func() (any, error) { return b.next.ListBundles(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]domain.CatalogBundle), nil
}

func (b *BreakingCatalogStore) GetAsset(ctx context.Context, id string) (*domain.CatalogAsset, error) {
	v, err := b.execute(func() (any, error) { return b.next.GetAsset(ctx, id) })
	if err != nil {
		return nil, err
	}
	return v.(*domain.CatalogAsset), nil
}

func (b *BreakingCatalogStore) GetBundle(ctx context.Context, id string) (*domain.CatalogBundle, error) {
	v, err := b.execute(func() (any, error) { return b.next.GetBundle(ctx, id) })
	if err != nil {
		return nil, err
	}
	return v.(*domain.CatalogBundle), nil
}

func (b *BreakingCatalogStore) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCatalogUnavailable
	}
	return v, err
}
