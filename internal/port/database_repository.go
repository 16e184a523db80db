package port

import (
	"context"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
)

// ProductRepository is the read-only catalog view.
type ProductRepository interface {
	// GetProduct returns nil, nil when no product matches.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// ListMonitoredProducts returns active products with at least one
	// anomaly interval setting enabled.
	ListMonitoredProducts(ctx context.Context) ([]domain.Product, error)
}

// OrderRepository owns order history reads and the batch write path.
type OrderRepository interface {
	// RecentOrders returns up to limit orders for the product, most recent first.
	RecentOrders(ctx context.Context, productID string, limit int) ([]domain.Order, error)

	// CreateBatch executes every write of the batch inside one transaction:
	// per line, a guarded stock decrement, an inventory movement row, and an
	// order row. Any failure rolls back the whole batch; a stock re-check
	// failure surfaces as *domain.InsufficientStockError, anything else as
	// *domain.TransactionError.
	CreateBatch(ctx context.Context, batch domain.OrderBatch) error
}

// AnomalyRepository appends scan audit rows.
type AnomalyRepository interface {
	SaveFinding(ctx context.Context, finding domain.AnomalyFinding) error
}
