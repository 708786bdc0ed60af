package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/events"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type CheckoutResult struct {
	Purchases   []domain.PurchaseRecord `json:"purchases"`
	TotalAmount int64                   `json:"total_amount"`
}

type CheckoutService struct {
	ledger repository.PurchaseLedger
	carts  CartClearer
	bus    events.Publisher
	log    zerolog.Logger
	now    func() time.Time
}

func NewCheckoutService(ledger repository.PurchaseLedger, carts CartClearer, bus events.Publisher, log zerolog.Logger) *CheckoutService {
	return &CheckoutService{
		ledger: ledger,
		carts:  carts,
		bus:    bus,
		log:    log.With().Str("component", "checkout_service").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Checkout records one completed purchase per item, in order, then clears the cart.
// Any failure stops the run and leaves the cart untouched. Records already in the
// ledger for the same cart item are kept as they are and reported as stored, so a
// retry after a partial failure does not duplicate them.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, items []domain.EnhancedCartItem) (*CheckoutResult, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	result := &CheckoutResult{Purchases: make([]domain.PurchaseRecord, 0, len(items))}
	var recorded map[string]domain.PurchaseRecord
	for i, item := range items {
		record := s.draft(userID, item)

		err := s.ledger.Create(ctx, &record)
		switch {
		case errors.Is(err, repository.ErrDuplicatePurchase):
			s.log.Info().Str("user_id", userID).Str("cart_item_id", item.ID).Msg("purchase already recorded, skipping")
			if recorded == nil {
				if recorded, err = s.recordedByCartItem(ctx, userID); err != nil {
					return nil, fmt.Errorf("%w: load recorded item %d of %d: %w", ErrCheckoutFailed, i+1, len(items), err)
				}
			}
			if stored, ok := recorded[record.CartItemID]; ok {
				record = stored
			}
		case err != nil:
			s.log.Error().Err(err).Str("user_id", userID).Int("item", i+1).Int("of", len(items)).Msg("persist purchase failed")
			return nil, fmt.Errorf("%w: persist item %d of %d: %w", ErrCheckoutFailed, i+1, len(items), err)
		}

		result.Purchases = append(result.Purchases, record)
		result.TotalAmount += record.Amount
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("clear cart after checkout failed")
		return nil, fmt.Errorf("%w: clear cart: %w", ErrCheckoutFailed, err)
	}

	ids := make([]string, 0, len(result.Purchases))
	for _, p := range result.Purchases {
		ids = append(ids, p.ID)
	}
	err := s.bus.Publish(ctx, domain.Event{
		Type:   domain.EventCheckoutCompleted,
		UserID: userID,
		Payload: domain.CheckoutCompletedEvent{
			PurchaseIDs: ids,
			TotalAmount: result.TotalAmount,
			ItemCount:   len(items),
		},
		OccurredAt: s.now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("event publish error")
	}

	return result, nil
}

// recordedByCartItem indexes the user's ledger so a retried checkout reports
// the rows that were actually stored, not freshly drafted copies.
func (s *CheckoutService) recordedByCartItem(ctx context.Context, userID string) (map[string]domain.PurchaseRecord, error) {
	records, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.PurchaseRecord, len(records))
	for _, r := range records {
		out[r.CartItemID] = r
	}
	return out, nil
}

// draft derives the purchase id from the cart row so a retried checkout
// produces the same record.
func (s *CheckoutService) draft(userID string, item domain.EnhancedCartItem) domain.PurchaseRecord {
	id := uuid.New()
	if item.ID != "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+"/"+item.ID))
	}
	cartItemID := item.ID
	if cartItemID == "" {
		cartItemID = id.String()
	}

	return domain.PurchaseRecord{
		ID:         id.String(),
		UserID:     userID,
		AssetID:    item.AssetID,
		BundleID:   item.BundleID,
		CartItemID: cartItemID,
		Amount:     item.LineTotal(),
		Status:     domain.PurchaseStatusCompleted,
		CreatedAt:  s.now(),
	}
}
