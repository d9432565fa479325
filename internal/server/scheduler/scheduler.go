// Package scheduler runs the release sweep periodically.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/services"
)

// Sweeper performs one pass over all owners.
type Sweeper interface {
	RunSweepOnce(ctx context.Context) (*services.SweepReport, error)
}

// Scheduler calls the sweeper on a fixed interval. Sweeps run inline in the
// loop, so a slow sweep delays the next tick and two sweeps never overlap.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// DefaultInterval replaces a non-positive interval passed to New.
const DefaultInterval = time.Hour

func New(sweeper Sweeper, interval time.Duration, logger logging.Logger) *Scheduler {
	logger = logger.With("module", "scheduler")
	if interval <= 0 {
		logger.Warn(context.Background(), "non-positive sweep interval, using default",
			"interval", interval.String(), "default", DefaultInterval.String())
		interval = DefaultInterval
	}
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the loop. The first sweep runs immediately. Calling Start
// on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.logger.Info(ctx, "scheduler started", "interval", s.interval.String())
}

// Stop cancels the loop and waits for it to exit. Owner units already in
// flight finish first; owners not yet started are skipped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info(context.Background(), "scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	report, err := s.sweeper.RunSweepOnce(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweep failed", "error", err)
		return
	}
	if err := report.Err(); err != nil {
		s.logger.Warn(ctx, "sweep finished with failed owners", "failed", len(report.Failures), "error", err)
	}
}
