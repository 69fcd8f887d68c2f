package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner performs one fetch.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// Scheduler runs fetches on a cron schedule for the long-running mode.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	runner  Runner
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	lastErr error
	lastRun time.Time
	cancel  context.CancelFunc
}

// NewScheduler validates spec (standard five-field or @descriptor syntax) and
// returns a stopped scheduler. Each run is bounded by timeout.
func NewScheduler(spec string, runner Runner, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		spec:    spec,
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Start registers the job and starts the cron loop. Jobs do not overlap; a run
// still in progress when the next tick fires causes that tick to be skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() { s.RunOnce(ctx) }))
	if _, err := s.cron.AddJob(s.spec, job); err != nil {
		cancel()
		return fmt.Errorf("schedule fetch: %w", err)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("fetch scheduler started", "schedule", s.spec)
	return nil
}

// Stop cancels in-flight runs and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("fetch scheduler stopped")
}

// RunOnce performs one fetch and records its outcome for readiness.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug("scheduled fetch starting")

	err := s.runner.Run(ctx)

	s.mu.Lock()
	s.lastErr = err
	s.lastRun = time.Now()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("scheduled fetch failed", "error", err)
	}
}

// CheckReadiness reports ready once the scheduler is running and the most
// recent fetch, if any, succeeded.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return errors.New("fetch scheduler not started")
	}
	if s.lastErr != nil {
		return fmt.Errorf("last fetch at %s failed: %w", s.lastRun.UTC().Format(time.RFC3339), s.lastErr)
	}
	return nil
}
