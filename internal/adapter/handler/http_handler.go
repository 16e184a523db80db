package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/service"
)

// actorHeader carries the validated actor identity supplied by the
// upstream authentication layer.
const actorHeader = "X-Actor-ID"

type HTTPHandler struct {
	orderService *service.OrderService
	scheduler    *service.ScanScheduler
	log          *logrus.Logger
}

func NewHTTPHandler(orderService *service.OrderService, scheduler *service.ScanScheduler, log *logrus.Logger) *HTTPHandler {
	return &HTTPHandler{orderService: orderService, scheduler: scheduler, log: log}
}

type batchOrderPayload struct {
	RequestID    string                    `json:"request_id,omitempty"`
	StoreID      string                    `json:"store_id"`
	DeliveryDate string                    `json:"delivery_date"`
	Notes        string                    `json:"notes"`
	Lines        []domain.OrderLineRequest `json:"lines"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`

	Field     string `json:"field,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`

	FailedGroups []domain.SupplierGroup `json:"failed_groups,omitempty"`
	PassedGroups []domain.SupplierGroup `json:"passed_groups,omitempty"`

	BatchNumber string `json:"batch_number,omitempty"`
}

// PlaceBatchOrder handles POST /api/orders/batch.
func (h *HTTPHandler) PlaceBatchOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actor := r.Header.Get(actorHeader)
	if actor == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "missing actor identity"})
		return
	}

	var payload batchOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Message: "invalid request body"})
		return
	}

	result, err := h.orderService.PlaceBatch(r.Context(), domain.BatchOrderRequest{
		RequestID:    payload.RequestID,
		Lines:        payload.Lines,
		DeliveryDate: payload.DeliveryDate,
		Notes:        payload.Notes,
		ActorID:      actor,
		StoreID:      payload.StoreID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	batchOrdersCommitted.Inc()
	writeJSON(w, http.StatusOK, result)
}

// ValidateBatchOrder handles POST /api/orders/batch/validate: the
// delivery-threshold dry-run, zero writes.
func (h *HTTPHandler) ValidateBatchOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Header.Get(actorHeader) == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "missing actor identity"})
		return
	}

	var payload batchOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Message: "invalid request body"})
		return
	}

	report, err := h.orderService.DryRun(r.Context(), payload.Lines)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// TriggerAnomalyScan handles POST /api/anomaly/scan.
func (h *HTTPHandler) TriggerAnomalyScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Header.Get(actorHeader) == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "missing actor identity"})
		return
	}

	summary := h.scheduler.TriggerScan(r.Context())
	if !summary.Success && summary.Error == domain.ErrScanInProgress.Error() {
		writeJSON(w, http.StatusConflict, summary)
		return
	}
	anomalyFindings.Add(float64(summary.FindingCount))
	writeJSON(w, http.StatusOK, summary)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var notFoundErr *domain.NotFoundError
	var stockErr *domain.InsufficientStockError
	var thresholdErr *domain.DeliveryThresholdError
	var txErr *domain.TransactionError

	switch {
	case errors.As(err, &validationErr):
		batchOrdersRejected.WithLabelValues("validation").Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "validation",
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})
	case errors.As(err, &notFoundErr):
		batchOrdersRejected.WithLabelValues("not_found").Inc()
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:     "not_found",
			Message:   notFoundErr.Error(),
			ProductID: notFoundErr.ProductID,
		})
	case errors.As(err, &stockErr):
		batchOrdersRejected.WithLabelValues("insufficient_stock").Inc()
		writeJSON(w, http.StatusConflict, errorBody{
			Error:     "insufficient_stock",
			Message:   stockErr.Error(),
			ProductID: stockErr.ProductID,
			Requested: stockErr.Requested,
			Available: stockErr.Available,
		})
	case errors.As(err, &thresholdErr):
		batchOrdersRejected.WithLabelValues("delivery_threshold").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:        "delivery_threshold",
			Message:      thresholdErr.Error(),
			FailedGroups: thresholdErr.Failed,
			PassedGroups: thresholdErr.Passed,
		})
	case errors.Is(err, domain.ErrDuplicateRequest):
		batchOrdersRejected.WithLabelValues("duplicate").Inc()
		writeJSON(w, http.StatusConflict, errorBody{Error: "duplicate", Message: "duplicate request"})
	case errors.As(err, &txErr):
		batchOrdersRejected.WithLabelValues("transaction").Inc()
		h.log.WithError(txErr).Error("batch transaction failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:       "transaction",
			Message:     "batch was rolled back, no orders created",
			BatchNumber: txErr.BatchNumber,
		})
	default:
		h.log.WithError(err).Error("unexpected error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
