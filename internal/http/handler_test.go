package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/cache"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/repository"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) error { return nil }

type failingCatalog struct{ repository.CatalogStore }

func (failingCatalog) ListAssets(context.Context) ([]domain.CatalogAsset, error) {
	return nil, repository.ErrCatalogUnavailable
}

func (failingCatalog) ListBundles(context.Context) ([]domain.CatalogBundle, error) {
	return nil, repository.ErrCatalogUnavailable
}

type failingLedger struct{ *repository.MemoryStore }

func (failingLedger) Create(context.Context, *domain.PurchaseRecord) error {
	return errors.New("ledger offline")
}

type testServer struct {
	handler http.Handler
	store   *repository.MemoryStore
}

type overrides struct {
	catalog repository.CatalogStore
	ledger  repository.PurchaseLedger
}

func newTestServer(t *testing.T, o overrides) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	store.SetAsset(domain.CatalogAsset{ID: "a1", Name: "Low-poly Forest Pack", Price: 500})
	store.SetAsset(domain.CatalogAsset{ID: "a2", Name: "Sci-fi UI Kit", Price: 1200})
	store.SetBundle(domain.CatalogBundle{ID: "b1", Name: "Indie Starter Bundle", Price: 1599})

	var catalog repository.CatalogStore = store
	if o.catalog != nil {
		catalog = o.catalog
	}
	var ledger repository.PurchaseLedger = store
	if o.ledger != nil {
		ledger = o.ledger
	}

	log := zerolog.Nop()
	catalogSvc := service.NewCatalogService(catalog, cache.Noop{}, log)
	carts := service.NewCartService(store, store, cache.Noop{}, nopPublisher{}, log)
	aggregator := service.NewAggregator(carts, catalogSvc, log)
	checkout := service.NewCheckoutService(ledger, carts, nopPublisher{}, log)

	timeout := 5 * time.Second
	h := NewRouter(Handlers{
		Cart:     NewCartHandler(carts, aggregator, timeout),
		Checkout: NewCheckoutHandler(aggregator, checkout, ledger, timeout),
		Catalog:  NewCatalogHandler(catalogSvc, timeout),
	}, log, timeout)

	return &testServer{handler: h, store: store}
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, overrides{})
	rec := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCart_Unauthorized(t *testing.T) {
	srv := newTestServer(t, overrides{})

	rec := srv.do(t, http.MethodGet, "/api/v1/cart", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "unauthorized", resp.Code)
}

func TestGetCart_Empty(t *testing.T) {
	srv := newTestServer(t, overrides{})

	rec := srv.do(t, http.MethodGet, "/api/v1/cart", "u1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[CartResponseDTO](t, rec)
	assert.True(t, resp.IsEmpty)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "0.00", resp.TotalDisplay)
}

func TestAddThenGetCart(t *testing.T) {
	srv := newTestServer(t, overrides{})

	rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", "u1", AddItemRequestDTO{AssetID: "a1", Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decode[domain.CartLineItem](t, rec)
	assert.NotEmpty(t, added.ID)

	rec = srv.do(t, http.MethodPost, "/api/v1/cart/items", "u1", AddItemRequestDTO{BundleID: "b1", Quantity: 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[CartResponseDTO](t, rec)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Low-poly Forest Pack", resp.Items[0].Name)
	assert.Equal(t, int64(1000), resp.Items[0].LineTotal)
	assert.Equal(t, "10.00", resp.Items[0].LineTotalDisplay)
	assert.Equal(t, domain.ItemTypeBundle, resp.Items[1].Type)
	assert.Equal(t, 3, resp.ItemCount)
	assert.Equal(t, int64(2599), resp.TotalPrice)
	assert.Equal(t, "25.99", resp.TotalDisplay)
	assert.False(t, resp.IsEmpty)
}

func TestAddItem_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"invalid json", "not-an-object", http.StatusBadRequest, "invalid_request"},
		{"zero quantity", AddItemRequestDTO{AssetID: "a1"}, http.StatusBadRequest, "invalid_quantity"},
		{"no reference", AddItemRequestDTO{Quantity: 1}, http.StatusBadRequest, "invalid_reference"},
		{"both references", AddItemRequestDTO{AssetID: "a1", BundleID: "b1", Quantity: 1}, http.StatusBadRequest, "invalid_reference"},
		{"unknown asset", AddItemRequestDTO{AssetID: "ghost", Quantity: 1}, http.StatusNotFound, "catalog_item_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, overrides{})
			rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", "u1", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	srv := newTestServer(t, overrides{})
	rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", "u1", AddItemRequestDTO{AssetID: "a2", Quantity: 1})
	item := decode[domain.CartLineItem](t, rec)

	rec = srv.do(t, http.MethodPut, "/api/v1/cart/items/"+item.ID, "u1", UpdateQuantityRequestDTO{Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[CartResponseDTO](t, rec)
	assert.Equal(t, int64(3600), resp.TotalPrice)

	rec = srv.do(t, http.MethodPut, "/api/v1/cart/items/missing", "u1", UpdateQuantityRequestDTO{Quantity: 3})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/v1/cart/items/"+item.ID, "u1", UpdateQuantityRequestDTO{Quantity: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItem_MissingIsOK(t *testing.T) {
	srv := newTestServer(t, overrides{})
	srv.do(t, http.MethodPost, "/api/v1/cart/items", "u1", AddItemRequestDTO{AssetID: "a1", Quantity: 1})

	rec := srv.do(t, http.MethodDelete, "/api/v1/cart/items/not-there", "u1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[CartResponseDTO](t, rec).Items, 1)
}

func TestClearCart_EmptyIsOK(t *testing.T) {
	srv := newTestServer(t, overrides{})

	rec := srv.do(t, http.MethodDelete, "/api/v1/cart", "u1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[CartResponseDTO](t, rec).IsEmpty)
}

func TestCheckout_Success(t *testing.T) {
	srv := newTestServer(t, overrides{})
	srv.do(t, http.MethodPost, "/api/v1/cart/items", "u1", AddItemRequestDTO{AssetID: "a1", Quantity: 2})

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout", "u1", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[CheckoutResponseDTO](t, rec)
	require.Len(t, resp.Purchases, 1)
	assert.Equal(t, int64(1000), resp.Purchases[0].Amount)
	assert.Equal(t, "a1", resp.Purchases[0].AssetID)
	assert.Equal(t, domain.PurchaseStatusCompleted, resp.Purchases[0].Status)
	assert.Equal(t, "10.00", resp.TotalDisplay)

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", "u1", nil)
	assert.True(t, decode[CartResponseDTO](t, rec).IsEmpty)

	rec = srv.do(t, http.MethodGet, "/api/v1/purchases", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[PurchasesResponseDTO](t, rec).Purchases, 1)
}

func TestCheckout_GhostAssetRecordsZero(t *testing.T) {
	srv := newTestServer(t, overrides{})
	srv.do(t, http.MethodPost, "/api/v1/cart/items", "u1", AddItemRequestDTO{AssetID: "a1", Quantity: 1})
	srv.store.DeleteAsset("a1")

	rec := srv.do(t, http.MethodGet, "/api/v1/cart", "u1", nil)
	view := decode[CartResponseDTO](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, domain.UnknownAssetName, view.Items[0].Name)
	assert.Zero(t, view.TotalPrice)

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout", "u1", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[CheckoutResponseDTO](t, rec)
	require.Len(t, resp.Purchases, 1)
	assert.Zero(t, resp.Purchases[0].Amount)
}

func TestCheckout_EmptyCart(t *testing.T) {
	srv := newTestServer(t, overrides{})

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout", "u1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Code)
}

func TestCheckout_LedgerFailureKeepsCart(t *testing.T) {
	srv := newTestServer(t, overrides{ledger: failingLedger{repository.NewMemoryStore()}})
	srv.do(t, http.MethodPost, "/api/v1/cart/items", "u1", AddItemRequestDTO{AssetID: "a1", Quantity: 1})

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout", "u1", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "checkout_failed", decode[ErrorResponse](t, rec).Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", "u1", nil)
	assert.Len(t, decode[CartResponseDTO](t, rec).Items, 1)
}

func TestCheckout_DegradedCatalogIsRefused(t *testing.T) {
	store := repository.NewMemoryStore()
	srv := newTestServer(t, overrides{catalog: failingCatalog{store}})
	require.NoError(t, srv.store.Add(context.Background(), domain.CartLineItem{ID: "i1", UserID: "u1", AssetID: "a1", Quantity: 1}))

	rec := srv.do(t, http.MethodGet, "/api/v1/cart", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[CartResponseDTO](t, rec).CatalogDegraded)

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout", "u1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "catalog_unavailable", decode[ErrorResponse](t, rec).Code)
}

func TestCatalogListing(t *testing.T) {
	srv := newTestServer(t, overrides{})

	rec := srv.do(t, http.MethodGet, "/api/v1/catalog/assets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assets := decode[map[string][]domain.CatalogAsset](t, rec)
	assert.Len(t, assets["assets"], 2)

	rec = srv.do(t, http.MethodGet, "/api/v1/catalog/bundles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bundles := decode[map[string][]domain.CatalogBundle](t, rec)
	assert.Len(t, bundles["bundles"], 1)
}

func TestCatalogListing_Unavailable(t *testing.T) {
	srv := newTestServer(t, overrides{catalog: failingCatalog{repository.NewMemoryStore()}})

	rec := srv.do(t, http.MethodGet, "/api/v1/catalog/assets", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, overrides{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-fixed")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-fixed", rec.Header().Get("X-Request-ID"))
}

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "0.00", formatMinor(0))
	assert.Equal(t, "5.00", formatMinor(500))
	assert.Equal(t, "15.99", formatMinor(1599))
	assert.Equal(t, "0.07", formatMinor(7))
}
