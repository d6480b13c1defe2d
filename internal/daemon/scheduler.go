package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/clomonitor/internal/logfields"
)

// Scheduler wraps gocron for the periodic service jobs. Every job fires
// once right after Start, then on its interval, and is rescheduled rather
// than stacked when a run outlasts the interval.
type Scheduler struct {
	scheduler gocron.Scheduler

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Add registers a named periodic job. Jobs only fire after Start.
func (s *Scheduler) Add(name string, every time.Duration, run func(context.Context) error) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { s.execute(name, run) }),
		gocron.WithName(name),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", name, err)
	}
	slog.Info("Job scheduled", logfields.ScheduleName(name), slog.Duration("every", every))
	return nil
}

// Start begins firing jobs. The context bounds every job run; canceling it
// aborts in-flight passes.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// execute runs one job pass. Errors are logged, never propagated; the next
// interval gets a fresh attempt.
func (s *Scheduler) execute(name string, run func(context.Context) error) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return
	}

	start := time.Now()
	slog.Info("Job started", logfields.ScheduleName(name))
	if err := run(ctx); err != nil {
		slog.Error("Job failed",
			logfields.ScheduleName(name),
			slog.Duration("elapsed", time.Since(start)),
			logfields.Error(err))
		return
	}
	slog.Info("Job finished",
		logfields.ScheduleName(name),
		slog.Duration("elapsed", time.Since(start)))
}
