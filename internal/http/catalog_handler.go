package http

import (
	"context"
	"net/http"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
)

type CatalogLister interface {
	ListAssets(ctx context.Context) ([]domain.CatalogAsset, error)
	ListBundles(ctx context.Context) ([]domain.CatalogBundle, error)
}

type CatalogHandler struct {
	catalog CatalogLister
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogLister, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout}
}

func (h *CatalogHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	assets, err := h.catalog.ListAssets(ctx)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	if assets == nil {
		assets = []domain.CatalogAsset{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func (h *CatalogHandler) ListBundles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bundles, err := h.catalog.ListBundles(ctx)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	if bundles == nil {
		bundles = []domain.CatalogBundle{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"bundles": bundles})
}
