// Package scheduler owns the reminder lifecycle: a periodic tick that
// evaluates every active reminder rule against today's date, dispatches
// the due ones exactly once, and records the outcome on the rule's
// pending history row.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"docroute-api/internal/clock"
	"docroute-api/internal/config"
	"docroute-api/internal/metrics"
	"docroute-api/internal/notifier"
	"docroute-api/internal/repository"
)

// Scheduler manages the periodic reminder processing
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	store     repository.Store
	notifier  notifier.Notifier
	clock     clock.Clock
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex

	// runMu serializes reminder passes across every entry point. The
	// cron chain only covers cron-scheduled invocations; RunOnce must
	// hold the same guarantee.
	runMu sync.Mutex
}

// NewScheduler creates a new scheduler. Jobs run through a
// SkipIfStillRunning chain so a slow tick is never overlapped by the
// next one.
func NewScheduler(cfg *config.SchedulerConfig, store repository.Store, n notifier.Notifier, clk clock.Clock, m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	cronLogger := cron.PrintfLogger(logrus.StandardLogger())

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		config:   cfg,
		store:    store,
		notifier: n,
		clock:    clk,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	// Schedule the job to run every N minutes
	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	entryID, err := s.cron.AddFunc(schedule, s.processReminders)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Reminder scheduler started with interval: %d minute(s)", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	// Cancel context to stop any running operations
	s.cancel()

	// Stop the cron scheduler
	ctx := s.cron.Stop()

	// Wait for all jobs to complete
	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce runs the reminder processing once (for manual triggering and
// for the immediate-send path after creating a rule that is due today)
func (s *Scheduler) RunOnce() error {
	logrus.Info("Running reminder processing once")
	s.processReminders()
	return nil
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// Wait waits for in-flight processing to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
