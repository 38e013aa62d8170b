// Package scheduler drives the periodic market refresh.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"CoinBoard/internal/usecase"
	applogger "CoinBoard/pkg/logger"

	"github.com/robfig/cron/v3"
)

const refreshTimeout = 10 * time.Minute

// Scheduler runs the refresh cycle on a cron spec.
type Scheduler struct {
	cron      *cron.Cron
	refresher *usecase.Refresher
	l         *applogger.Logger
}

func New(refresher *usecase.Refresher, l *applogger.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		l:         l,
	}
}

// Register installs the refresh task under spec (standard 5-field cron).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start begins firing scheduled tasks.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started")
}

// Stop halts scheduling and waits for a running task to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.l.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow fires one refresh cycle immediately.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.refresher.RefreshAll(ctx)
}

func (s *Scheduler) refreshTask() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.refresher.RefreshAll(ctx); err != nil {
		s.l.Error("scheduled refresh failed", applogger.Error(err))
	}
}
