package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/port"
)

const (
	batchNumberPrefix  = "PO"
	idempotencyKeyPref = "batch:"
)

// OrderService coordinates batch order placement: validation, the atomic
// write sequence, and the shortfall notification on threshold rejection.
type OrderService struct {
	validator *BatchValidator
	orders    port.OrderRepository
	cache     port.CacheRepository
	notifier  port.Notifier
	log       *logrus.Logger
	now       func() time.Time
}

func NewOrderService(validator *BatchValidator, orders port.OrderRepository, cache port.CacheRepository, notifier port.Notifier, log *logrus.Logger) *OrderService {
	return &OrderService{
		validator: validator,
		orders:    orders,
		cache:     cache,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// PlaceBatch validates the submission and, if every supplier group clears
// its threshold, commits all writes as one transaction. Every failure path
// leaves zero rows behind.
func (s *OrderService) PlaceBatch(ctx context.Context, req domain.BatchOrderRequest) (*domain.BatchResult, error) {
	result, err := s.validator.Validate(ctx, req.Lines)
	if err != nil {
		var thresholdErr *domain.DeliveryThresholdError
		if errors.As(err, &thresholdErr) {
			s.notifyShortfall(ctx, req, thresholdErr)
		}
		return nil, err
	}

	if req.RequestID != "" {
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKeyPref+req.RequestID)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	batch := s.buildBatch(req, result.Lines)

	if err := s.orders.CreateBatch(ctx, batch); err != nil {
		if req.RequestID != "" {
			// The submission did not commit, so the same request id may retry.
			if clearErr := s.cache.ClearIdempotency(ctx, idempotencyKeyPref+req.RequestID); clearErr != nil {
				s.log.WithError(clearErr).WithField("request_id", req.RequestID).
					Error("failed to clear idempotency key after rollback")
			}
		}

		var stockErr *domain.InsufficientStockError
		var txErr *domain.TransactionError
		if errors.As(err, &stockErr) || errors.As(err, &txErr) {
			return nil, err
		}
		return nil, &domain.TransactionError{BatchNumber: batch.BatchNumber, Cause: err}
	}

	s.log.WithFields(logrus.Fields{
		"batch_number": batch.BatchNumber,
		"lines":        len(batch.Lines),
		"actor":        req.ActorID,
	}).Info("batch order committed")

	return s.buildResult(req, batch, result.Groups), nil
}

// DryRun executes validation only and reports the per-supplier
// classification with zero writes. A threshold rejection is a normal
// outcome here, not an error.
func (s *OrderService) DryRun(ctx context.Context, lines []domain.OrderLineRequest) (*ThresholdReport, error) {
	result, err := s.validator.Validate(ctx, lines)
	if err != nil {
		var thresholdErr *domain.DeliveryThresholdError
		if errors.As(err, &thresholdErr) {
			return &ThresholdReport{Failed: thresholdErr.Failed, Passed: thresholdErr.Passed}, nil
		}
		return nil, err
	}
	return &ThresholdReport{Passed: result.Groups, Satisfied: true}, nil
}

// ThresholdReport is the dry-run outcome.
type ThresholdReport struct {
	Satisfied bool                   `json:"satisfied"`
	Passed    []domain.SupplierGroup `json:"passed"`
	Failed    []domain.SupplierGroup `json:"failed,omitempty"`
}

// newBatchNumber builds a sortable, human-legible identifier: date plus the
// first fragment of a fresh uuid to distinguish submissions.
func (s *OrderService) newBatchNumber() string {
	fragment := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s-%s-%s", batchNumberPrefix, s.now().Format("20060102"), fragment)
}

func (s *OrderService) buildBatch(req domain.BatchOrderRequest, lines []ResolvedLine) domain.OrderBatch {
	batchNumber := s.newBatchNumber()
	now := s.now()

	batch := domain.OrderBatch{BatchNumber: batchNumber}
	for _, line := range lines {
		p := line.Product
		batch.Lines = append(batch.Lines, domain.BatchLine{
			ProductID: p.ID,
			Quantity:  line.Quantity,
			Order: domain.Order{
				ID:           batchNumber + "-" + p.ID,
				BatchNumber:  batchNumber,
				ProductID:    p.ID,
				ProductName:  p.Name,
				Quantity:     line.Quantity,
				UnitCost:     p.UnitCost,
				TotalCost:    p.UnitCost * float64(line.Quantity),
				Status:       domain.OrderStatusApproved,
				RequestedBy:  req.ActorID,
				ApprovedBy:   req.ActorID,
				Supplier:     p.Supplier,
				StoreID:      req.StoreID,
				DeliveryDate: req.DeliveryDate,
				Notes:        req.Notes,
				CreatedAt:    now,
			},
			Movement: domain.InventoryTransaction{
				ID:        uuid.NewString(),
				ProductID: p.ID,
				Type:      domain.MovementTypeOutbound,
				Quantity:  line.Quantity,
				Reason:    domain.ReasonBatchOrder,
				Reference: batchNumber,
				Actor:     req.ActorID,
				CreatedAt: now,
			},
		})
	}
	return batch
}

func (s *OrderService) buildResult(req domain.BatchOrderRequest, batch domain.OrderBatch, groups []domain.SupplierGroup) *domain.BatchResult {
	result := &domain.BatchResult{
		BatchNumber:  batch.BatchNumber,
		LineCount:    len(batch.Lines),
		Suppliers:    groups,
		DeliveryDate: req.DeliveryDate,
		Notes:        req.Notes,
	}
	for _, line := range batch.Lines {
		result.Lines = append(result.Lines, domain.LineDetail{
			OrderID:     line.Order.ID,
			ProductID:   line.ProductID,
			ProductName: line.Order.ProductName,
			Quantity:    line.Quantity,
			UnitCost:    line.Order.UnitCost,
			LineTotal:   line.Order.TotalCost,
		})
	}
	return result
}

func (s *OrderService) notifyShortfall(ctx context.Context, req domain.BatchOrderRequest, thresholdErr *domain.DeliveryThresholdError) {
	notice := domain.ThresholdShortfallNotice{
		Kind:    domain.NoticeKindThresholdShortfall,
		StoreID: req.StoreID,
		ActorID: req.ActorID,
		Failed:  thresholdErr.Failed,
		Passed:  thresholdErr.Passed,
	}
	if err := s.notifier.NotifyThresholdShortfall(ctx, notice); err != nil {
		s.log.WithError(err).WithField("store_id", req.StoreID).
			Warn("failed to dispatch threshold shortfall notice")
	}
}
