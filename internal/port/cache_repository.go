package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency sets a key for duplicate-submission detection, returns
	// false if it already exists.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ClearIdempotency removes a key so a rolled-back submission can retry.
	ClearIdempotency(ctx context.Context, key string) error

	// AcquireScanLock takes the cross-process anomaly scan lock, returns
	// false if another process holds it. The TTL bounds a crashed holder.
	AcquireScanLock(ctx context.Context, ttl time.Duration) (bool, error)

	// ReleaseScanLock frees the scan lock.
	ReleaseScanLock(ctx context.Context) error
}
