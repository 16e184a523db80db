package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
)

// MySQLAdapter implements the catalog reader, order history reader, batch
// write path, and anomaly audit log on one MySQL connection pool.
type MySQLAdapter struct {
	db *sqlx.DB
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

type productRow struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	Supplier          string    `db:"supplier"`
	UnitCost          float64   `db:"unit_cost"`
	Unit              string    `db:"unit"`
	CurrentStock      int       `db:"current_stock"`
	DeliveryThreshold float64   `db:"delivery_threshold"`
	FrequentOrderDays int       `db:"frequent_order_days"`
	RareOrderDays     int       `db:"rare_order_days"`
	Active            bool      `db:"active"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:                r.ID,
		Name:              r.Name,
		Supplier:          r.Supplier,
		UnitCost:          r.UnitCost,
		Unit:              r.Unit,
		CurrentStock:      r.CurrentStock,
		DeliveryThreshold: r.DeliveryThreshold,
		FrequentOrderDays: r.FrequentOrderDays,
		RareOrderDays:     r.RareOrderDays,
		Active:            r.Active,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

const productColumns = `id, name, supplier, unit_cost, unit, current_stock,
	delivery_threshold, frequent_order_days, rare_order_days, active,
	created_at, updated_at`

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := m.db.GetContext(ctx, &row,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	product := row.toDomain()
	return &product, nil
}

func (m *MySQLAdapter) ListMonitoredProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	err := m.db.SelectContext(ctx, &rows,
		`SELECT `+productColumns+` FROM products
		 WHERE active = 1 AND (frequent_order_days > 0 OR rare_order_days > 0)
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query monitored products: %w", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

type orderRow struct {
	ID           string    `db:"id"`
	BatchNumber  string    `db:"batch_number"`
	ProductID    string    `db:"product_id"`
	ProductName  string    `db:"product_name"`
	Quantity     int       `db:"quantity"`
	UnitCost     float64   `db:"unit_cost"`
	TotalCost    float64   `db:"total_cost"`
	Status       string    `db:"status"`
	RequestedBy  string    `db:"requested_by"`
	ApprovedBy   string    `db:"approved_by"`
	Supplier     string    `db:"supplier"`
	StoreID      string    `db:"store_id"`
	DeliveryDate string    `db:"delivery_date"`
	Notes        string    `db:"notes"`
	CreatedAt    time.Time `db:"created_at"`
}

func (m *MySQLAdapter) RecentOrders(ctx context.Context, productID string, limit int) ([]domain.Order, error) {
	var rows []orderRow
	err := m.db.SelectContext(ctx, &rows, `
		SELECT id, batch_number, product_id, product_name, quantity, unit_cost,
		       total_cost, status, requested_by, approved_by, supplier,
		       store_id, delivery_date, notes, created_at
		FROM orders
		WHERE product_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, domain.Order{
			ID:           r.ID,
			BatchNumber:  r.BatchNumber,
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			Quantity:     r.Quantity,
			UnitCost:     r.UnitCost,
			TotalCost:    r.TotalCost,
			Status:       domain.OrderStatus(r.Status),
			RequestedBy:  r.RequestedBy,
			ApprovedBy:   r.ApprovedBy,
			Supplier:     r.Supplier,
			StoreID:      r.StoreID,
			DeliveryDate: r.DeliveryDate,
			Notes:        r.Notes,
			CreatedAt:    r.CreatedAt,
		})
	}
	return orders, nil
}

// CreateBatch runs the whole write sequence inside one transaction. Each
// stock decrement re-checks sufficiency against current state; validation
// and mutation are not the same instant, so without this two concurrent
// batches could both pass validation against stale stock.
func (m *MySQLAdapter) CreateBatch(ctx context.Context, batch domain.OrderBatch) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return &domain.TransactionError{BatchNumber: batch.BatchNumber, Cause: fmt.Errorf("begin tx: %w", err)}
	}
	defer tx.Rollback()

	for _, line := range batch.Lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET current_stock = current_stock - ?, updated_at = NOW()
			WHERE id = ? AND current_stock >= ?`,
			line.Quantity, line.ProductID, line.Quantity,
		)
		if err != nil {
			return &domain.TransactionError{
				BatchNumber: batch.BatchNumber,
				Cause:       fmt.Errorf("decrement stock %s: %w", line.ProductID, err),
			}
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return m.stockConflict(ctx, tx, line)
		}

		mv := line.Movement
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_transactions
				(id, product_id, type, quantity, reason, reference, actor, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			mv.ID, mv.ProductID, mv.Type, mv.Quantity, mv.Reason, mv.Reference, mv.Actor, mv.CreatedAt,
		)
		if err != nil {
			return &domain.TransactionError{
				BatchNumber: batch.BatchNumber,
				Cause:       fmt.Errorf("insert inventory transaction %s: %w", line.ProductID, err),
			}
		}

		o := line.Order
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders
				(id, batch_number, product_id, product_name, quantity, unit_cost,
				 total_cost, status, requested_by, approved_by, supplier,
				 store_id, delivery_date, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.BatchNumber, o.ProductID, o.ProductName, o.Quantity, o.UnitCost,
			o.TotalCost, o.Status, o.RequestedBy, o.ApprovedBy, o.Supplier,
			o.StoreID, o.DeliveryDate, o.Notes, o.CreatedAt,
		)
		if err != nil {
			return &domain.TransactionError{
				BatchNumber: batch.BatchNumber,
				Cause:       fmt.Errorf("insert order %s: %w", o.ID, err),
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.TransactionError{BatchNumber: batch.BatchNumber, Cause: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// stockConflict re-reads the row so the error carries both quantities.
func (m *MySQLAdapter) stockConflict(ctx context.Context, tx *sqlx.Tx, line domain.BatchLine) error {
	var row struct {
		Name  string `db:"name"`
		Stock int    `db:"current_stock"`
	}
	if err := tx.GetContext(ctx, &row,
		`SELECT name, current_stock FROM products WHERE id = ?`, line.ProductID); err != nil {
		return &domain.InsufficientStockError{
			ProductID: line.ProductID,
			Requested: line.Quantity,
		}
	}
	return &domain.InsufficientStockError{
		ProductID:   line.ProductID,
		ProductName: row.Name,
		Requested:   line.Quantity,
		Available:   row.Stock,
	}
}

func (m *MySQLAdapter) SaveFinding(ctx context.Context, f domain.AnomalyFinding) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO anomaly_logs
			(product_id, kind, store_id, supplier, anomaly_days, threshold_days,
			 recent_count, total_quantity, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		f.ProductID, f.Kind, f.StoreID, f.Supplier, f.AnomalyDays, f.ThresholdDays,
		f.RecentCount, f.TotalQuantity, f.Message,
	)
	if err != nil {
		return fmt.Errorf("insert anomaly log: %w", err)
	}
	return nil
}
