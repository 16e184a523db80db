package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/port"
)

// BatchValidator resolves requested line items against the catalog and
// checks every supplier group against its delivery threshold. It performs
// no mutation; all its failures are side-effect-free.
type BatchValidator struct {
	products port.ProductRepository
}

func NewBatchValidator(products port.ProductRepository) *BatchValidator {
	return &BatchValidator{products: products}
}

// ResolvedLine carries the catalog snapshot used for costing. Unit cost is
// frozen here so a concurrent price change cannot skew the committed totals.
type ResolvedLine struct {
	Product  domain.Product
	Quantity int
}

type ValidationResult struct {
	Lines  []ResolvedLine
	Groups []domain.SupplierGroup
}

// Validate checks the batch end to end: input shape, product existence,
// stock sufficiency per item, then per-supplier threshold classification.
// Stock shortages reject the batch before the threshold check is considered
// conclusive.
func (v *BatchValidator) Validate(ctx context.Context, lines []domain.OrderLineRequest) (*ValidationResult, error) {
	if len(lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Message: "at least one line item is required"}
	}

	resolved := make([]ResolvedLine, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, &domain.ValidationError{Field: "product_id", Message: "product id is required"}
		}
		if line.Quantity <= 0 {
			return nil, &domain.ValidationError{
				Field:   "quantity",
				Message: fmt.Sprintf("product %s: quantity must be positive", line.ProductID),
			}
		}

		product, err := v.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}
		if product == nil || !product.Active {
			return nil, &domain.NotFoundError{ProductID: line.ProductID}
		}
		if product.CurrentStock < line.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.CurrentStock,
			}
		}

		resolved = append(resolved, ResolvedLine{Product: *product, Quantity: line.Quantity})
	}

	groups := GroupBySupplier(resolved)

	var failed, passed []domain.SupplierGroup
	for _, g := range groups {
		if g.Satisfied {
			passed = append(passed, g)
		} else {
			failed = append(failed, g)
		}
	}
	if len(failed) > 0 {
		return nil, &domain.DeliveryThresholdError{Failed: failed, Passed: passed}
	}

	return &ValidationResult{Lines: resolved, Groups: groups}, nil
}

// GroupBySupplier partitions resolved lines by supplier name. Lines whose
// product has no supplier fall into the UnassignedSupplier group so they are
// still threshold-checked. The group threshold is the highest threshold
// among member products. Output is ordered by supplier name.
func GroupBySupplier(lines []ResolvedLine) []domain.SupplierGroup {
	byName := make(map[string]*domain.SupplierGroup)
	for _, l := range lines {
		name := l.Product.Supplier
		if name == "" {
			name = domain.UnassignedSupplier
		}

		g, ok := byName[name]
		if !ok {
			g = &domain.SupplierGroup{Supplier: name}
			byName[name] = g
		}

		lineTotal := l.Product.UnitCost * float64(l.Quantity)
		g.Items = append(g.Items, domain.GroupItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitCost:    l.Product.UnitCost,
			LineTotal:   lineTotal,
		})
		g.Subtotal += lineTotal
		if l.Product.DeliveryThreshold > g.Threshold {
			g.Threshold = l.Product.DeliveryThreshold
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]domain.SupplierGroup, 0, len(names))
	for _, name := range names {
		g := byName[name]
		if g.Subtotal >= g.Threshold {
			g.Satisfied = true
			g.Surplus = g.Subtotal - g.Threshold
		} else {
			g.Shortfall = g.Threshold - g.Subtotal
		}
		groups = append(groups, *g)
	}
	return groups
}
