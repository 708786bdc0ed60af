package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/repository"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain sentinels onto HTTP statuses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		status int
		code   string
	)

	switch {
	case errors.Is(err, service.ErrMissingUser):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrInvalidQuantity):
		status, code = http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, service.ErrInvalidReference):
		status, code = http.StatusBadRequest, "invalid_reference"
	case errors.Is(err, service.ErrEmptyCart):
		status, code = http.StatusBadRequest, "empty_cart"
	case errors.Is(err, repository.ErrItemNotFound):
		status, code = http.StatusNotFound, "item_not_found"
	case errors.Is(err, repository.ErrCatalogItemNotFound):
		status, code = http.StatusNotFound, "catalog_item_not_found"
	case errors.Is(err, repository.ErrCatalogUnavailable):
		status, code = http.StatusServiceUnavailable, "catalog_unavailable"
	case errors.Is(err, service.ErrCheckoutFailed):
		status, code = http.StatusInternalServerError, "checkout_failed"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("unhandled service error")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, status, code, err.Error())
}

// formatMinor renders an amount in minor units with two decimals.
func formatMinor(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
