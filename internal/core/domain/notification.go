package domain

import "time"

// Notification payload variants. Each kind has its own fixed shape so the
// notifier boundary never sees a loosely-typed bag of fields.

const (
	NoticeKindTooRare            = "too_rare"
	NoticeKindTooFrequent        = "too_frequent"
	NoticeKindThresholdShortfall = "threshold_shortfall"
)

type TooRareItem struct {
	ProductID       string     `json:"product_id"`
	ProductName     string     `json:"product_name"`
	Supplier        string     `json:"supplier"`
	LastPurchase    *time.Time `json:"last_purchase,omitempty"`
	LastQuantity    int        `json:"last_quantity"`
	DaysSinceOrder  int        `json:"days_since_order"`
	NormalDays      int        `json:"normal_days"`
	Recommendation  string     `json:"recommendation"`
	SupplierContact string     `json:"supplier_contact,omitempty"`
}

// TooRareNotice is one grouped notification covering every too-rare finding
// for a single store in one scan.
type TooRareNotice struct {
	Kind    string        `json:"kind"`
	StoreID string        `json:"store_id"`
	Items   []TooRareItem `json:"items"`
}

type TooFrequentItem struct {
	ProductID       string     `json:"product_id"`
	ProductName     string     `json:"product_name"`
	Supplier        string     `json:"supplier"`
	LastPurchase    *time.Time `json:"last_purchase,omitempty"`
	RecentCount     int        `json:"recent_count"`
	TotalQuantity   int        `json:"total_quantity"`
	WindowDays      int        `json:"window_days"`
	AvgDaysBetween  float64    `json:"avg_days_between"`
	NormalDays      int        `json:"normal_days"`
	Recommendation  string     `json:"recommendation"`
	SupplierContact string     `json:"supplier_contact,omitempty"`
}

type TooFrequentNotice struct {
	Kind    string            `json:"kind"`
	StoreID string            `json:"store_id"`
	Items   []TooFrequentItem `json:"items"`
}

// ThresholdShortfallNotice reports a rejected batch with the complete
// per-supplier picture so the operator can top the order up and retry.
type ThresholdShortfallNotice struct {
	Kind    string          `json:"kind"`
	StoreID string          `json:"store_id"`
	ActorID string          `json:"actor_id"`
	Failed  []SupplierGroup `json:"failed_groups"`
	Passed  []SupplierGroup `json:"passed_groups"`
}
