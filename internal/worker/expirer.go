package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HoldExpirer releases seats held by stale pending registrations.
type HoldExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Expirer sweeps expired checkout holds on a fixed interval.
type Expirer struct {
	checkout HoldExpirer
	interval time.Duration
	logger   *zap.Logger
}

// NewExpirer creates a hold expiry sweeper.
func NewExpirer(checkout HoldExpirer, interval time.Duration, logger *zap.Logger) *Expirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Expirer{checkout: checkout, interval: interval, logger: logger}
}

// Run sweeps until ctx is done. Counting queries ignore expired holds either
// way, so a missed sweep only delays bookkeeping, never oversells a seat.
func (e *Expirer) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("hold expirer stopping")
			return
		case <-ticker.C:
			n, err := e.checkout.ExpireStale(ctx)
			if err != nil {
				e.logger.Warn("expire sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				e.logger.Info("expired stale holds", zap.Int("count", n))
			}
		}
	}
}
