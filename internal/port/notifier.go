package port

import (
	"context"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
)

// Notifier dispatches structured payloads to the external notification
// system. Delivery guarantees are the consumer's problem; callers log and
// move on when a dispatch fails.
type Notifier interface {
	NotifyTooRare(ctx context.Context, notice domain.TooRareNotice) error
	NotifyTooFrequent(ctx context.Context, notice domain.TooFrequentNotice) error
	NotifyThresholdShortfall(ctx context.Context, notice domain.ThresholdShortfallNotice) error
}
