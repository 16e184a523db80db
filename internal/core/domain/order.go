package domain

import "time"

type OrderStatus string

const (
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusCancelled OrderStatus = "cancelled"
)

const (
	MovementTypeOutbound = "outbound"
	ReasonBatchOrder     = "batch order"
)

// OrderLineRequest is one requested line of a batch submission.
type OrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// BatchOrderRequest is one client submission. RequestID is optional; when
// present it is used for duplicate-submission detection.
type BatchOrderRequest struct {
	RequestID    string
	Lines        []OrderLineRequest
	DeliveryDate string
	Notes        string
	ActorID      string
	StoreID      string
}

type Order struct {
	ID           string
	BatchNumber  string
	ProductID    string
	ProductName  string
	Quantity     int
	UnitCost     float64
	TotalCost    float64
	Status       OrderStatus
	RequestedBy  string
	ApprovedBy   string
	Supplier     string
	StoreID      string
	DeliveryDate string
	Notes        string
	CreatedAt    time.Time
}

// InventoryTransaction is one append-only audit row tying a stock movement
// back to the batch that caused it.
type InventoryTransaction struct {
	ID        string
	ProductID string
	Type      string
	Quantity  int
	Reason    string
	Reference string
	Actor     string
	CreatedAt time.Time
}

type GroupItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	LineTotal   float64 `json:"line_total"`
}

// SupplierGroup is the partition of a batch's items sharing one supplier,
// classified against that supplier's delivery threshold.
type SupplierGroup struct {
	Supplier  string      `json:"supplier"`
	Items     []GroupItem `json:"items"`
	Subtotal  float64     `json:"subtotal"`
	Threshold float64     `json:"threshold"`
	Shortfall float64     `json:"shortfall"`
	Surplus   float64     `json:"surplus"`
	Satisfied bool        `json:"satisfied"`
}

// BatchLine pairs the rows persisted for one requested line item. The
// storage adapter executes lines in list order inside a single transaction.
type BatchLine struct {
	ProductID string
	Quantity  int
	Order     Order
	Movement  InventoryTransaction
}

type OrderBatch struct {
	BatchNumber string
	Lines       []BatchLine
}

type LineDetail struct {
	OrderID     string  `json:"order_id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	LineTotal   float64 `json:"line_total"`
}

// BatchResult is returned to the caller after a successful commit.
type BatchResult struct {
	BatchNumber  string          `json:"batch_number"`
	LineCount    int             `json:"line_count"`
	Suppliers    []SupplierGroup `json:"suppliers"`
	Lines        []LineDetail    `json:"lines"`
	DeliveryDate string          `json:"delivery_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}
