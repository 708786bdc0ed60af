package http

import (
	"context"
	"net/http"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/service"
	"github.com/rs/zerolog"
)

type Checkouter interface {
	Checkout(ctx context.Context, userID string, items []domain.EnhancedCartItem) (*service.CheckoutResult, error)
}

type PurchaseLister interface {
	ListByUser(ctx context.Context, userID string) ([]domain.PurchaseRecord, error)
}

type CheckoutHandler struct {
	views     CartViewer
	checkout  Checkouter
	purchases PurchaseLister
	timeout   time.Duration
}

func NewCheckoutHandler(views CartViewer, checkout Checkouter, purchases PurchaseLister, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		views:     views,
		checkout:  checkout,
		purchases: purchases,
		timeout:   timeout,
	}
}

type CheckoutResponseDTO struct {
	Purchases    []domain.PurchaseRecord `json:"purchases"`
	TotalAmount  int64                   `json:"total_amount"`
	TotalDisplay string                  `json:"total_display"`
}

type PurchasesResponseDTO struct {
	Purchases []domain.PurchaseRecord `json:"purchases"`
}

// Checkout records the current cart. It refuses to run against a degraded
// catalog so unresolved prices are never charged as zero by accident.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
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
	if view.CatalogDegraded {
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "catalog is unavailable, try again later")
		return
	}

	result, err := h.checkout.Checkout(ctx, userID, view.Items)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Int("purchases", len(result.Purchases)).
		Int64("total_amount", result.TotalAmount).
		Msg("checkout completed")

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Purchases:    result.Purchases,
		TotalAmount:  result.TotalAmount,
		TotalDisplay: formatMinor(result.TotalAmount),
	})
}

func (h *CheckoutHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	records, err := h.purchases.ListByUser(ctx, userID)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	if records == nil {
		records = []domain.PurchaseRecord{}
	}

	respondJSON(w, http.StatusOK, PurchasesResponseDTO{Purchases: records})
}
