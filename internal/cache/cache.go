package cache

import (
	"context"
	"errors"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
)

// CartCache holds a user's raw cart rows, never derived totals.
type CartCache interface {
	Get(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	Set(ctx context.Context, userID string, items []domain.CartLineItem) error
	Delete(ctx context.Context, userID string) error
}

type CatalogCache interface {
	GetAssets(ctx context.Context) ([]domain.CatalogAsset, error)
	SetAssets(ctx context.Context, assets []domain.CatalogAsset) error
	GetBundles(ctx context.Context) ([]domain.CatalogBundle, error)
	SetBundles(ctx context.Context, bundles []domain.CatalogBundle) error
}

var ErrCacheMiss = errors.New("cache miss")
