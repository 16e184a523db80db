package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/service"
)

type stubProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func (s *stubProductRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *stubProductRepo) ListMonitoredProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Product
	for _, p := range s.products {
		if p.Monitored() {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubOrderRepo struct {
	mu      sync.Mutex
	batches []domain.OrderBatch
}

func (s *stubOrderRepo) RecentOrders(ctx context.Context, productID string, limit int) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) CreateBatch(ctx context.Context, batch domain.OrderBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch)
	return nil
}

type stubFindingStore struct{}

func (s *stubFindingStore) SaveFinding(ctx context.Context, f domain.AnomalyFinding) error {
	return nil
}

type stubCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (s *stubCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubCache) ClearIdempotency(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *stubCache) AcquireScanLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return true, nil
}

func (s *stubCache) ReleaseScanLock(ctx context.Context) error { return nil }

type stubNotifier struct{}

func (s *stubNotifier) NotifyTooRare(ctx context.Context, n domain.TooRareNotice) error { return nil }
func (s *stubNotifier) NotifyTooFrequent(ctx context.Context, n domain.TooFrequentNotice) error {
	return nil
}
func (s *stubNotifier) NotifyThresholdShortfall(ctx context.Context, n domain.ThresholdShortfallNotice) error {
	return nil
}

func newTestHandler(products map[string]domain.Product) (*HTTPHandler, *stubOrderRepo) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	productRepo := &stubProductRepo{products: products}
	orderRepo := &stubOrderRepo{}
	cache := &stubCache{}
	notifier := &stubNotifier{}

	validator := service.NewBatchValidator(productRepo)
	orderService := service.NewOrderService(validator, orderRepo, cache, notifier, log)
	scheduler := service.NewScanScheduler(productRepo, orderRepo, &stubFindingStore{}, cache, notifier, log)

	return NewHTTPHandler(orderService, scheduler, log), orderRepo
}

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, path, actor string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if actor != "" {
		req.Header.Set(actorHeader, actor)
	}
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestPlaceBatchOrder_MissingActor(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := postJSON(t, h.PlaceBatchOrder, "/api/orders/batch", "", batchOrderPayload{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceBatchOrder_Success(t *testing.T) {
	h, orders := newTestHandler(map[string]domain.Product{
		"P": {ID: "P", Name: "product P", Supplier: "S", UnitCost: 50, CurrentStock: 100, DeliveryThreshold: 1000, Active: true},
	})

	rec := postJSON(t, h.PlaceBatchOrder, "/api/orders/batch", "user-1", batchOrderPayload{
		StoreID: "store-1",
		Lines:   []domain.OrderLineRequest{{ProductID: "P", Quantity: 25}},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.LineCount)
	assert.NotEmpty(t, result.BatchNumber)
	assert.Len(t, orders.batches, 1)
}

func TestPlaceBatchOrder_ThresholdRejection(t *testing.T) {
	h, orders := newTestHandler(map[string]domain.Product{
		"P": {ID: "P", Name: "product P", Supplier: "S", UnitCost: 50, CurrentStock: 100, DeliveryThreshold: 1000, Active: true},
	})

	rec := postJSON(t, h.PlaceBatchOrder, "/api/orders/batch", "user-1", batchOrderPayload{
		StoreID: "store-1",
		Lines:   []domain.OrderLineRequest{{ProductID: "P", Quantity: 10}},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "delivery_threshold", body.Error)
	require.Len(t, body.FailedGroups, 1)
	assert.Equal(t, 500.0, body.FailedGroups[0].Shortfall)
	assert.Empty(t, orders.batches)
}

func TestPlaceBatchOrder_UnknownProduct(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := postJSON(t, h.PlaceBatchOrder, "/api/orders/batch", "user-1", batchOrderPayload{
		Lines: []domain.OrderLineRequest{{ProductID: "missing", Quantity: 1}},
	})

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error)
	assert.Equal(t, "missing", body.ProductID)
}

func TestPlaceBatchOrder_InsufficientStock(t *testing.T) {
	h, _ := newTestHandler(map[string]domain.Product{
		"P": {ID: "P", Name: "product P", Supplier: "S", UnitCost: 50, CurrentStock: 3, Active: true},
	})

	rec := postJSON(t, h.PlaceBatchOrder, "/api/orders/batch", "user-1", batchOrderPayload{
		Lines: []domain.OrderLineRequest{{ProductID: "P", Quantity: 5}},
	})

	require.Equal(t, http.StatusConflict, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_stock", body.Error)
	assert.Equal(t, 5, body.Requested)
	assert.Equal(t, 3, body.Available)
}

func TestValidateBatchOrder_DryRunNoWrites(t *testing.T) {
	h, orders := newTestHandler(map[string]domain.Product{
		"P": {ID: "P", Name: "product P", Supplier: "S", UnitCost: 50, CurrentStock: 100, DeliveryThreshold: 1000, Active: true},
	})

	rec := postJSON(t, h.ValidateBatchOrder, "/api/orders/batch/validate", "user-1", batchOrderPayload{
		Lines: []domain.OrderLineRequest{{ProductID: "P", Quantity: 10}},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var report service.ThresholdReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Satisfied)
	require.Len(t, report.Failed, 1)
	assert.Empty(t, orders.batches)
}

func TestTriggerAnomalyScan(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := postJSON(t, h.TriggerAnomalyScan, "/api/anomaly/scan", "operator-1", struct{}{})

	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.ScanSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.Success)
	assert.Equal(t, 0, summary.FindingCount)
}

func TestTriggerAnomalyScan_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/anomaly/scan", nil)
	rec := httptest.NewRecorder()
	h.TriggerAnomalyScan(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
