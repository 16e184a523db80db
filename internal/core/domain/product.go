package domain

import "time"

// UnassignedSupplier is the fixed group key for line items whose product has
// no supplier on record. They still get threshold-checked instead of being
// silently skipped.
const UnassignedSupplier = "unassigned"

type Product struct {
	ID                string
	Name              string
	Supplier          string
	UnitCost          float64
	Unit              string
	CurrentStock      int
	DeliveryThreshold float64
	FrequentOrderDays int // 0 disables the too-frequent rule
	RareOrderDays     int // 0 disables the too-rare rule
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Monitored reports whether the product participates in anomaly scans.
func (p *Product) Monitored() bool {
	return p.Active && (p.FrequentOrderDays > 0 || p.RareOrderDays > 0)
}
