package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler repeats dispatch passes on a cron schedule. Passes never
// overlap: a tick that fires while a pass is still running is skipped.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *Dispatcher
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
	mu        sync.Mutex
	failures  int // passes that ended in a fatal error
}

// NewScheduler validates schedule (standard five-field cron syntax, or
// descriptors such as "@every 15m") and prepares the scheduler.
func NewScheduler(schedule string, d *Dispatcher, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		dispatcher: d,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := s.cron.AddFunc(schedule, s.pass); err != nil {
		cancel()
		return nil, fmt.Errorf("reminder: invalid cron schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running passes in the background.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting reminder scheduler")
		s.cron.Start()
	})
}

// Stop cancels the running pass, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("shutting down reminder scheduler")
		s.cancel()
		<-s.cron.Stop().Done()
	})
}

// Failures returns the number of passes that failed so far.
func (s *Scheduler) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *Scheduler) pass() {
	if _, err := s.dispatcher.Run(s.ctx); err != nil {
		s.mu.Lock()
		s.failures++
		s.mu.Unlock()
		s.logger.Error("reminder pass failed", slog.String("error", err.Error()))
	}
}
