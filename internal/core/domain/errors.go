package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrScanInProgress   = errors.New("anomaly scan already running")
)

// ValidationError rejects malformed input before any store access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError rejects a line item referencing an unknown or inactive
// product before any write.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found or inactive", e.ProductID)
}

// InsufficientStockError is raised both during validation and again by the
// race re-check inside the batch transaction.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// DeliveryThresholdError carries the classification of every supplier group,
// short and satisfied, so the caller sees the complete picture.
type DeliveryThresholdError struct {
	Failed []SupplierGroup
	Passed []SupplierGroup
}

func (e *DeliveryThresholdError) Error() string {
	return fmt.Sprintf("%d supplier group(s) below delivery threshold", len(e.Failed))
}

// TransactionError means the atomic write sequence failed and was rolled
// back; zero partial writes are visible.
type TransactionError struct {
	BatchNumber string
	Cause       error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("batch %s transaction failed: %v", e.BatchNumber, e.Cause)
}

func (e *TransactionError) Unwrap() error { return e.Cause }
