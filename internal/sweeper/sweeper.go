// Package sweeper deactivates expired links on a fixed interval. It is the
// active half of expiry handling; the registry's lazy check on read is the
// passive half, and both converge on the same terminal state.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"linkforge/internal/repository"
)

// tickTimeout bounds the batch statement so a stalled connection cannot
// pin the loop; the next tick retries independently.
const tickTimeout = 30 * time.Second

// Sweeper runs as a single background loop; ticks execute sequentially so
// they can never overlap.
type Sweeper struct {
	repo     repository.LinkRepository
	interval time.Duration
	logger   *slog.Logger
}

// New creates an expiry sweeper with the given tick interval.
func New(repo repository.LinkRepository, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval. A failed
// tick is logged and carries no state over; the next tick retries the same
// batch query independently.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("expiry sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	deactivated, err := s.repo.DeactivateExpired(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		return
	}

	if deactivated > 0 {
		s.logger.Info("deactivated expired links", "count", deactivated)
	}
}
