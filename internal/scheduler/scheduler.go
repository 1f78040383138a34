package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"build-hooks/pkg/circleci"
)

// DefaultTimeout bounds a single refresh run
const DefaultTimeout = time.Minute

// Refresher polls the current workflow
type Refresher interface {
	Refresh(ctx context.Context) (*circleci.Workflow, bool, error)
}

// Scheduler periodically refreshes the current workflow status
type Scheduler struct {
	refresher Refresher
	expr      string
	cron      *cron.Cron
	timeout   time.Duration

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new scheduler. An empty expression disables it.
func NewScheduler(refresher Refresher, expr string) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		expr:      expr,
		cron:      cron.New(),
		timeout:   DefaultTimeout,
	}
}

// Enabled reports whether a cron expression is configured
func (s *Scheduler) Enabled() bool {
	return s.expr != ""
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		slog.Info("status refresher disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.expr, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	slog.Info("status refresher started", "cron", s.expr)
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish
func (s *Scheduler) Stop() {
	if !s.Enabled() {
		return
	}
	<-s.cron.Stop().Done()
	slog.Info("status refresher stopped")
}

// RunOnce refreshes the workflow status once. Overlapping runs are skipped.
func (s *Scheduler) RunOnce(parent context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		slog.Debug("status refresh already running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	wf, changed, err := s.refresher.Refresh(ctx)
	if err != nil {
		slog.Warn("status refresh failed", "err", err)
		return
	}
	if wf != nil && changed {
		slog.Debug("status refreshed", "workflow_id", wf.ID, "status", wf.Status)
	}
}
