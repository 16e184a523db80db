package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
)

type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	err      error
	listGate chan struct{} // when set, ListMonitoredProducts blocks until closed
}

func newMockProductRepo(products ...domain.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockProductRepo) ListMonitoredProducts(ctx context.Context) ([]domain.Product, error) {
	if m.listGate != nil {
		<-m.listGate
	}
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		if p.Monitored() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockOrderRepo struct {
	mu         sync.Mutex
	history    map[string][]domain.Order
	historyErr map[string]error
	batches    []domain.OrderBatch
	failOn     string // product id whose write-time stock re-check fails
	createErr  error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		history:    make(map[string][]domain.Order),
		historyErr: make(map[string]error),
	}
}

func (m *mockOrderRepo) RecentOrders(ctx context.Context, productID string, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.historyErr[productID]; err != nil {
		return nil, err
	}
	orders := m.history[productID]
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (m *mockOrderRepo) CreateBatch(ctx context.Context, batch domain.OrderBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, line := range batch.Lines {
		if line.ProductID == m.failOn {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: 0,
			}
		}
	}
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockOrderRepo) orderRowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b.Lines)
	}
	return n
}

type mockFindingStore struct {
	mu       sync.Mutex
	findings []domain.AnomalyFinding
	err      error
}

func (m *mockFindingStore) SaveFinding(ctx context.Context, f domain.AnomalyFinding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.findings = append(m.findings, f)
	return nil
}

type mockCacheRepo struct {
	mu     sync.Mutex
	keys   map[string]bool
	locked bool
	err    error
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{keys: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockCacheRepo) ClearIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *mockCacheRepo) AcquireScanLock(ctx context.Context, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.locked {
		return false, nil
	}
	m.locked = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseScanLock(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = false
	return nil
}

type mockNotifier struct {
	mu          sync.Mutex
	tooRare     []domain.TooRareNotice
	tooFrequent []domain.TooFrequentNotice
	shortfalls  []domain.ThresholdShortfallNotice
	err         error
}

func (m *mockNotifier) NotifyTooRare(ctx context.Context, n domain.TooRareNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tooRare = append(m.tooRare, n)
	return nil
}

func (m *mockNotifier) NotifyTooFrequent(ctx context.Context, n domain.TooFrequentNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tooFrequent = append(m.tooFrequent, n)
	return nil
}

func (m *mockNotifier) NotifyThresholdShortfall(ctx context.Context, n domain.ThresholdShortfallNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.shortfalls = append(m.shortfalls, n)
	return nil
}
