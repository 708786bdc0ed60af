package cache

import (
	"context"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
)

// Noop always misses. Used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]domain.CartLineItem, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, string, []domain.CartLineItem) error  { return nil }
func (Noop) Delete(context.Context, string) error                      { return nil }

func (Noop) GetAssets(context.Context) ([]domain.CatalogAsset, error)   { return nil, ErrCacheMiss }
func (Noop) SetAssets(context.Context, []domain.CatalogAsset) error     { return nil }
func (Noop) GetBundles(context.Context) ([]domain.CatalogBundle, error) { return nil, ErrCacheMiss }
func (Noop) SetBundles(context.Context, []domain.CatalogBundle) error   { return nil }
