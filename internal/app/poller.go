package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/ecoshop/internal/cart"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = 30 * time.Second
)

// Refresher is the part of the cart synchronizer the poller drives.
type Refresher interface {
	Refresh(ctx context.Context) error
	State() cart.State
}

// StartPoller refreshes the cart in the background, backing off
// exponentially while the storefront is unreachable. The returned channel
// is closed once the goroutine has exited after ctx is cancelled.
func StartPoller(ctx context.Context, target Refresher, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)

		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := target.Refresh(ctx); err != nil && ctx.Err() == nil {
				st := target.State()
				logger.Debug("cart poll failed",
					zap.Error(err),
					zap.Int("failures", st.ConsecutiveFailures),
					zap.Bool("offline", st.IsOffline()),
				)
			}
			timer.Reset(calculateBackoff(target.State().ConsecutiveFailures, interval))
		}
	}()
	return done
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
