package service

import (
	"context"
	"errors"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/cache"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/repository"
	"github.com/rs/zerolog"
)

// CatalogService puts a short-lived snapshot cache in front of the catalog store.
// Point lookups go straight to the store.
type CatalogService struct {
	store repository.CatalogStore
	cache cache.CatalogCache
	log   zerolog.Logger
}

func NewCatalogService(store repository.CatalogStore, c cache.CatalogCache, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		store: store,
		cache: c,
		log:   log.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *CatalogService) ListAssets(ctx context.Context) ([]domain.CatalogAsset, error) {
	assets, err := s.cache.GetAssets(ctx)
	if err == nil {
		return assets, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn().Err(err).Msg("catalog cache get error")
	}

	assets, err = s.store.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		if errSet := s.cache.SetAssets(context.Background(), assets); errSet != nil {
			s.log.Warn().Err(errSet).Msg("catalog cache set error")
		}
	}()
	return assets, nil
}

func (s *CatalogService) ListBundles(ctx context.Context) ([]domain.CatalogBundle, error) {
	bundles, err := s.cache.GetBundles(ctx)
	if err == nil {
		return bundles, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn().Err(err).Msg("catalog cache get error")
	}

	bundles, err = s.store.ListBundles(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		if errSet := s.cache.SetBundles(context.Background(), bundles); errSet != nil {
			s.log.Warn().Err(errSet).Msg("catalog cache set error")
		}
	}()
	return bundles, nil
}

func (s *CatalogService) GetAsset(ctx context.Context, id string) (*domain.CatalogAsset, error) {
	return s.store.GetAsset(ctx, id)
}

func (s *CatalogService) GetBundle(ctx context.Context, id string) (*domain.CatalogBundle, error) {
	return s.store.GetBundle(ctx, id)
}
