package domain

import "time"

type AnomalyKind string

const (
	AnomalyTooRare     AnomalyKind = "too_rare"
	AnomalyTooFrequent AnomalyKind = "too_frequent"
)

// DefaultStoreLabel is used when no order pins a finding to a store.
const DefaultStoreLabel = "all-stores"

// AnomalyFinding describes one detected ordering pattern for one product.
// A product can yield zero, one, or two findings per scan since the rules
// run independently.
type AnomalyFinding struct {
	Kind           AnomalyKind
	ProductID      string
	ProductName    string
	Supplier       string
	StoreID        string
	LastOrderDate  *time.Time
	LastOrderQty   int
	AnomalyDays    int // too-rare: whole days since the last order
	ThresholdDays  int // interval setting the rule compared against
	RecentCount    int // too-frequent: qualifying orders in the window
	TotalQuantity  int // too-frequent: summed quantity of those orders
	WindowDays     int
	AvgDaysBetween float64
	Message        string
}

// ScanSummary is the result of one scheduler pass.
type ScanSummary struct {
	Success      bool   `json:"success"`
	FindingCount int    `json:"finding_count"`
	Error        string `json:"error,omitempty"`
}
