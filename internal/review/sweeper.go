package review

import (
	"context"
	"time"

	"github.com/havenmind/counselor-platform/pkg/logging"
)

// Sweeper periodically auto-approves pending responses older than the review
// TTL. The admin endpoint remains available as a manual trigger.
type Sweeper struct {
	engine   *Engine
	ttl      time.Duration
	interval time.Duration
	logger   *logging.Logger
}

// NewSweeper creates a sweeper. An interval of 0 disables it.
func NewSweeper(engine *Engine, ttl, interval time.Duration, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{engine: engine, ttl: ttl, interval: interval, logger: logger}
}

// Run sweeps on the configured interval until ctx is cancelled. It blocks;
// callers start it in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("auto-approve sweeper disabled")
		return
	}

	s.logger.Info("auto-approve sweeper started", "interval", s.interval, "ttl", s.ttl)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("auto-approve sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	count, err := s.engine.AutoApproveExpired(sweepCtx, s.ttl)
	if err != nil {
		s.logger.Error("auto-approve sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.logger.Info("auto-approve sweep completed", "approved_count", count)
	}

	if err := s.engine.RefreshQueueDepth(sweepCtx); err != nil {
		s.logger.Warn("queue depth refresh failed", "error", err)
	}
}
