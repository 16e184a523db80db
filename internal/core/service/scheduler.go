package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/port"
)

const (
	// recentOrderWindow bounds how much history each rule sees.
	recentOrderWindow = 10

	defaultScanLockTTL = 10 * time.Minute
)

// ScanScheduler drives anomaly scans. Only one scan runs at a time per
// process; the scanning token is flipped with a compare-and-swap, never a
// bare shared flag. A Redis lock extends the guard across processes.
type ScanScheduler struct {
	products port.ProductRepository
	orders   port.OrderRepository
	findings port.AnomalyRepository
	cache    port.CacheRepository
	notifier port.Notifier
	log      *logrus.Logger

	scanning atomic.Bool
	lockTTL  time.Duration
	now      func() time.Time
}

func NewScanScheduler(products port.ProductRepository, orders port.OrderRepository, findings port.AnomalyRepository, cache port.CacheRepository, notifier port.Notifier, log *logrus.Logger) *ScanScheduler {
	return &ScanScheduler{
		products: products,
		orders:   orders,
		findings: findings,
		cache:    cache,
		notifier: notifier,
		log:      log,
		lockTTL:  defaultScanLockTTL,
		now:      time.Now,
	}
}

// Run drives periodic scans until ctx is cancelled. Timer triggers share
// the same mutual-exclusion guard as on-demand ones.
func (s *ScanScheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary := s.TriggerScan(ctx)
			if !summary.Success {
				s.log.WithField("error", summary.Error).Warn("scheduled anomaly scan skipped")
			}
		}
	}
}

// TriggerScan runs one scan. A trigger arriving while a scan is in flight
// reports "already running" instead of queuing.
func (s *ScanScheduler) TriggerScan(ctx context.Context) domain.ScanSummary {
	if !s.scanning.CompareAndSwap(false, true) {
		return domain.ScanSummary{Success: false, Error: domain.ErrScanInProgress.Error()}
	}
	defer s.scanning.Store(false)

	if s.cache != nil {
		ok, err := s.cache.AcquireScanLock(ctx, s.lockTTL)
		if err != nil {
			// Degrade to the in-process guard rather than skipping the scan.
			s.log.WithError(err).Warn("scan lock unavailable, relying on local guard")
		} else if !ok {
			return domain.ScanSummary{Success: false, Error: domain.ErrScanInProgress.Error()}
		} else {
			defer func() {
				if err := s.cache.ReleaseScanLock(ctx); err != nil {
					s.log.WithError(err).Warn("failed to release scan lock")
				}
			}()
		}
	}

	products, err := s.products.ListMonitoredProducts(ctx)
	if err != nil {
		return domain.ScanSummary{Success: false, Error: fmt.Sprintf("load monitored products: %v", err)}
	}

	now := s.now()
	var findings []domain.AnomalyFinding
	for _, p := range products {
		recent, err := s.orders.RecentOrders(ctx, p.ID, recentOrderWindow)
		if err != nil {
			// One broken product never aborts the scan.
			s.log.WithError(err).WithField("product_id", p.ID).Warn("skipping product: history load failed")
			continue
		}
		findings = append(findings, EvaluateProduct(p, recent, now)...)
	}

	for _, f := range findings {
		if err := s.findings.SaveFinding(ctx, f); err != nil {
			s.log.WithError(err).WithField("product_id", f.ProductID).Warn("failed to persist anomaly finding")
		}
	}

	s.dispatch(ctx, findings)

	s.log.WithField("findings", len(findings)).Info("anomaly scan completed")
	return domain.ScanSummary{Success: true, FindingCount: len(findings)}
}

type noticeGroup struct {
	storeID string
	kind    domain.AnomalyKind
}

// dispatch groups findings by (store, kind) and sends one notification per
// group. A notifier failure is logged; the next scheduled run retries
// implicitly.
func (s *ScanScheduler) dispatch(ctx context.Context, findings []domain.AnomalyFinding) {
	grouped := make(map[noticeGroup][]domain.AnomalyFinding)
	for _, f := range findings {
		key := noticeGroup{storeID: f.StoreID, kind: f.Kind}
		grouped[key] = append(grouped[key], f)
	}

	keys := make([]noticeGroup, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].storeID != keys[j].storeID {
			return keys[i].storeID < keys[j].storeID
		}
		return keys[i].kind < keys[j].kind
	})

	for _, key := range keys {
		var err error
		switch key.kind {
		case domain.AnomalyTooRare:
			err = s.notifier.NotifyTooRare(ctx, buildTooRareNotice(key.storeID, grouped[key]))
		case domain.AnomalyTooFrequent:
			err = s.notifier.NotifyTooFrequent(ctx, buildTooFrequentNotice(key.storeID, grouped[key]))
		}
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"store_id": key.storeID,
				"kind":     key.kind,
			}).Warn("failed to dispatch anomaly notice")
		}
	}
}

func buildTooRareNotice(storeID string, findings []domain.AnomalyFinding) domain.TooRareNotice {
	notice := domain.TooRareNotice{Kind: domain.NoticeKindTooRare, StoreID: storeID}
	for _, f := range findings {
		notice.Items = append(notice.Items, domain.TooRareItem{
			ProductID:       f.ProductID,
			ProductName:     f.ProductName,
			Supplier:        f.Supplier,
			LastPurchase:    f.LastOrderDate,
			LastQuantity:    f.LastOrderQty,
			DaysSinceOrder:  f.AnomalyDays,
			NormalDays:      f.ThresholdDays,
			Recommendation:  fmt.Sprintf("no orders for %d days; review demand or restart deliveries", f.AnomalyDays),
			SupplierContact: supplierContactHint(f.Supplier),
		})
	}
	return notice
}

func buildTooFrequentNotice(storeID string, findings []domain.AnomalyFinding) domain.TooFrequentNotice {
	notice := domain.TooFrequentNotice{Kind: domain.NoticeKindTooFrequent, StoreID: storeID}
	for _, f := range findings {
		notice.Items = append(notice.Items, domain.TooFrequentItem{
			ProductID:       f.ProductID,
			ProductName:     f.ProductName,
			Supplier:        f.Supplier,
			LastPurchase:    f.LastOrderDate,
			RecentCount:     f.RecentCount,
			TotalQuantity:   f.TotalQuantity,
			WindowDays:      f.WindowDays,
			AvgDaysBetween:  f.AvgDaysBetween,
			NormalDays:      f.ThresholdDays,
			Recommendation:  fmt.Sprintf("ordered %d times within %d days; consider consolidating orders", f.RecentCount, f.WindowDays),
			SupplierContact: supplierContactHint(f.Supplier),
		})
	}
	return notice
}

func supplierContactHint(supplier string) string {
	if supplier == "" || supplier == domain.UnassignedSupplier {
		return ""
	}
	return "contact supplier: " + supplier
}
