package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchOrdersCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_orders_committed_total",
		Help: "Batch orders that committed successfully.",
	})

	batchOrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_orders_rejected_total",
		Help: "Batch orders rejected, labelled by reason.",
	}, []string{"reason"})

	anomalyFindings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomaly_scan_findings_total",
		Help: "Anomaly findings reported by operator-triggered scans.",
	})
)
