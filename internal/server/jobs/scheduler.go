// Package jobs runs periodic maintenance work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/services"
	"github.com/robfig/cron/v3"
)

// ProfileRefresher refreshes stored People from their platforms.
type ProfileRefresher interface {
	RefreshAll(ctx context.Context) (services.RefreshStats, error)
}

// Scheduler runs the profile refresh job. Runs never overlap: a tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	cron      *cron.Cron
	refresher ProfileRefresher
	logger    logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	running bool
}

// NewScheduler parses schedule (standard five-field spec or a descriptor
// such as "@every 1h"). An empty schedule yields a nil Scheduler, whose Run
// only waits for ctx.
func NewScheduler(schedule string, r ProfileRefresher, l logging.Logger) (*Scheduler, error) {
	if schedule == "" {
		return nil, nil
	}

	s := &Scheduler{
		cron:      cron.New(),
		refresher: r,
		logger:    l.With("module", "jobs"),
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid profile refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the cron loop and blocks until ctx is done, then waits for a
// run in progress to return.
func (s *Scheduler) Run(ctx context.Context) error {
	if s == nil {
		<-ctx.Done()
		return nil
	}

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.logger.Info(ctx, "Starting scheduler", "entries", len(s.cron.Entries()))
	s.cron.Start()
	<-ctx.Done()

	s.logger.Info(ctx, "Stopping scheduler...")
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.running || s.ctx == nil {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx := s.ctx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.RunOnce(ctx)
}

// RunOnce performs a single profile refresh and logs its outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	stats, err := s.refresher.RefreshAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "profile refresh aborted", "error", err, "checked", stats.Checked)
		return
	}
	s.logger.Info(ctx, "profile refresh done", "checked", stats.Checked, "updated", stats.Updated, "failed", stats.Failed)
}
