package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartMutator interface {
	Add(ctx context.Context, userID string, in service.AddItemInput) (*domain.CartLineItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

type CartViewer interface {
	View(ctx context.Context, userID string) (domain.CartView, error)
}

type CartHandler struct {
	carts   CartMutator
	views   CartViewer
	timeout time.Duration
}

func NewCartHandler(carts CartMutator, views CartViewer, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		views:   views,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	AssetID  string `json:"asset_id,omitempty"`
	BundleID string `json:"bundle_id,omitempty"`
	Quantity int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartItemDTO struct {
	domain.EnhancedCartItem
	LineTotal        int64  `json:"line_total"`
	LineTotalDisplay string `json:"line_total_display"`
}

type CartResponseDTO struct {
	Items           []CartItemDTO `json:"items"`
	ItemCount       int           `json:"item_count"`
	TotalPrice      int64         `json:"total_price"`
	TotalDisplay    string        `json:"total_display"`
	IsEmpty         bool          `json:"is_empty"`
	CatalogDegraded bool          `json:"catalog_degraded,omitempty"`
}

func toCartResponse(view domain.CartView) CartResponseDTO {
	items := make([]CartItemDTO, 0, len(view.Items))
	for _, it := range view.Items {
		items = append(items, CartItemDTO{
			EnhancedCartItem: it,
			LineTotal:        it.LineTotal(),
			LineTotalDisplay: formatMinor(it.LineTotal()),
		})
	}
	return CartResponseDTO{
		Items:           items,
		ItemCount:       view.ItemCount,
		TotalPrice:      view.TotalPrice,
		TotalDisplay:    formatMinor(view.TotalPrice),
		IsEmpty:         view.IsEmpty,
		CatalogDegraded: view.CatalogDegraded,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	view, err := h.views.View(ctx, userID)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	item, err := h.carts.Add(ctx, userID, service.AddItemInput{
		AssetID:  req.AssetID,
		BundleID: req.BundleID,
		Quantity: req.Quantity,
	})
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.carts.UpdateQuantity(ctx, userID, itemID, req.Quantity); err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	h.respondView(ctx, w, userID)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.Remove(ctx, userID, chi.URLParam(r, "item_id")); err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	h.respondView(ctx, w, userID)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.Clear(ctx, userID); err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	h.respondView(ctx, w, userID)
}

func (h *CartHandler) respondView(ctx context.Context, w http.ResponseWriter, userID string) {
	view, err := h.views.View(ctx, userID)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}
