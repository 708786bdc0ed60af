package service

import (
	"context"
	"fmt"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type CartReader interface {
	List(ctx context.Context, userID string) ([]domain.CartLineItem, error)
}

type CatalogReader interface {
	ListAssets(ctx context.Context) ([]domain.CatalogAsset, error)
	ListBundles(ctx context.Context) ([]domain.CatalogBundle, error)
}

// Aggregator joins a user's cart rows with the catalog into a CartView.
type Aggregator struct {
	carts   CartReader
	catalog CatalogReader
	log     zerolog.Logger
}

func NewAggregator(carts CartReader, catalog CatalogReader, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		carts:   carts,
		catalog: catalog,
		log:     log.With().Str("component", "aggregator").Logger(),
	}
}

// View returns an empty view without touching any store when userID is empty.
// A cart read failure is returned; a catalog failure only degrades the view.
func (a *Aggregator) View(ctx context.Context, userID string) (domain.CartView, error) {
	if userID == "" {
		return Aggregate(nil, nil, nil), nil
	}

	items, err := a.carts.List(ctx, userID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("read cart: %w", err)
	}
	if len(items) == 0 {
		return Aggregate(nil, nil, nil), nil
	}

	assets, bundles, err := a.fetchCatalog(ctx)
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("catalog unavailable, resolving cart against empty catalog")
		view := Aggregate(items, nil, nil)
		view.CatalogDegraded = true
		return view, nil
	}

	return Aggregate(items, assets, bundles), nil
}

func (a *Aggregator) fetchCatalog(ctx context.Context) ([]domain.CatalogAsset, []domain.CatalogBundle, error) {
	var (
		assets  []domain.CatalogAsset
		bundles []domain.CatalogBundle
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assets, err = a.catalog.ListAssets(gctx)
		if err != nil {
			return fmt.Errorf("list assets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bundles, err = a.catalog.ListBundles(gctx)
		if err != nil {
			return fmt.Errorf("list bundles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return assets, bundles, nil
}

// Aggregate is pure: rows keep their order, unresolved references price at zero.
func Aggregate(items []domain.CartLineItem, assets []domain.CatalogAsset, bundles []domain.CatalogBundle) domain.CartView {
	assetByID := make(map[string]domain.CatalogAsset, len(assets))
	for _, a := range assets {
		assetByID[a.ID] = a
	}
	bundleByID := make(map[string]domain.CatalogBundle, len(bundles))
	for _, b := range bundles {
		bundleByID[b.ID] = b
	}

	view := domain.CartView{
		Items:   make([]domain.EnhancedCartItem, 0, len(items)),
		IsEmpty: len(items) == 0,
	}
	for _, item := range items {
		enhanced := resolve(item, assetByID, bundleByID)
		view.Items = append(view.Items, enhanced)
		view.ItemCount += item.Quantity
		view.TotalPrice += enhanced.LineTotal()
	}
	return view
}

func resolve(item domain.CartLineItem, assets map[string]domain.CatalogAsset, bundles map[string]domain.CatalogBundle) domain.EnhancedCartItem {
	out := domain.EnhancedCartItem{CartLineItem: item, Type: domain.ItemTypeUnknown}

	switch item.Reference() {
	case domain.ItemTypeAsset:
		if a, ok := assets[item.AssetID]; ok {
			out.Name, out.Price, out.Thumbnail, out.Type = a.Name, a.Price, a.Thumbnail, domain.ItemTypeAsset
			return out
		}
		out.Name = domain.UnknownAssetName
	case domain.ItemTypeBundle:
		if b, ok := bundles[item.BundleID]; ok {
			out.Name, out.Price, out.Thumbnail, out.Type = b.Name, b.Price, b.Thumbnail, domain.ItemTypeBundle
			return out
		}
		out.Name = domain.UnknownBundleName
	default:
		out.Name = domain.UnknownItemName
	}
	return out
}
