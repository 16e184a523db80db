package service

import (
	"fmt"
	"time"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
)

const hoursPerDay = 24

// EvaluateProduct runs both anomaly rules independently over the product's
// recent order window (most recent first). A product can yield zero, one,
// or two findings.
func EvaluateProduct(p domain.Product, orders []domain.Order, now time.Time) []domain.AnomalyFinding {
	var findings []domain.AnomalyFinding
	if f := EvaluateTooRare(p, orders, now); f != nil {
		findings = append(findings, *f)
	}
	if f := EvaluateTooFrequent(p, orders, now); f != nil {
		findings = append(findings, *f)
	}
	return findings
}

// EvaluateTooRare flags a product whose last order is strictly older than
// its rare-order interval. With no order history the product's creation
// date anchors the age. Age exactly equal to the interval does not flag.
func EvaluateTooRare(p domain.Product, orders []domain.Order, now time.Time) *domain.AnomalyFinding {
	if p.RareOrderDays <= 0 {
		return nil
	}

	since := p.CreatedAt
	var last *domain.Order
	if len(orders) > 0 {
		last = &orders[0]
		since = last.CreatedAt
	}

	age := int(now.Sub(since).Hours() / hoursPerDay)
	if age <= p.RareOrderDays {
		return nil
	}

	finding := &domain.AnomalyFinding{
		Kind:          domain.AnomalyTooRare,
		ProductID:     p.ID,
		ProductName:   p.Name,
		Supplier:      p.Supplier,
		StoreID:       domain.DefaultStoreLabel,
		AnomalyDays:   age,
		ThresholdDays: p.RareOrderDays,
	}
	if last != nil {
		lastDate := last.CreatedAt
		finding.LastOrderDate = &lastDate
		finding.LastOrderQty = last.Quantity
		if last.StoreID != "" {
			finding.StoreID = last.StoreID
		}
	}
	finding.Message = fmt.Sprintf("%s has not been ordered for %d days (expected within %d days)",
		p.Name, age, p.RareOrderDays)
	return finding
}

// EvaluateTooFrequent flags a product with more than one order inside its
// frequent-order window. It needs at least two recent orders to have
// anything to say; a single qualifying order never flags.
func EvaluateTooFrequent(p domain.Product, orders []domain.Order, now time.Time) *domain.AnomalyFinding {
	if p.FrequentOrderDays <= 0 || len(orders) < 2 {
		return nil
	}

	cutoff := now.Add(-time.Duration(p.FrequentOrderDays) * hoursPerDay * time.Hour)
	var count, totalQty int
	var latest *domain.Order
	for i := range orders {
		o := &orders[i]
		if o.CreatedAt.Before(cutoff) {
			continue
		}
		count++
		totalQty += o.Quantity
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	if count <= 1 {
		return nil
	}

	finding := &domain.AnomalyFinding{
		Kind:           domain.AnomalyTooFrequent,
		ProductID:      p.ID,
		ProductName:    p.Name,
		Supplier:       p.Supplier,
		StoreID:        domain.DefaultStoreLabel,
		RecentCount:    count,
		TotalQuantity:  totalQty,
		WindowDays:     p.FrequentOrderDays,
		ThresholdDays:  p.FrequentOrderDays,
		AvgDaysBetween: float64(p.FrequentOrderDays) / float64(count),
	}
	if latest.StoreID != "" {
		finding.StoreID = latest.StoreID
	}
	lastDate := latest.CreatedAt
	finding.LastOrderDate = &lastDate
	finding.LastOrderQty = latest.Quantity
	finding.Message = fmt.Sprintf("%s was ordered %d times within %d days (total quantity %d)",
		p.Name, count, p.FrequentOrderDays, totalQty)
	return finding
}
