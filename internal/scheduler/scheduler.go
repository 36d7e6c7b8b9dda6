package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cfbfeed/internal/metrics"
	"cfbfeed/internal/pipeline"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner executes one feed cycle
type Runner interface {
	Run(ctx context.Context, season int) (*pipeline.Report, error)
}

// Scheduler runs the feed pipeline on a cron schedule. Runs never overlap:
// a tick that fires while a run is in progress is skipped.
type Scheduler struct {
	spec   string
	runner Runner
	season func(time.Time) int
	cron   *cron.Cron

	mu     sync.Mutex
	cancel context.CancelFunc
	last   *pipeline.Report
}

// NewScheduler creates a scheduler; season picks the season for each run
func NewScheduler(spec string, runner Runner, season func(time.Time) int) *Scheduler {
	return &Scheduler{
		spec:   spec,
		runner: runner,
		season: season,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{}),
			cron.SkipIfStillRunning(cronLogger{}),
		)),
	}
}

// Start registers the feed job and starts the cron scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule feed run: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.spec).
		Msg("Feed run scheduled")

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	done := s.cron.Stop()
	<-done.Done()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	log.Info().Msg("Scheduler stopped")
}

// RunOnce executes one feed run and records run metrics
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	season := s.season(start)

	log.Info().Int("season", season).Msg("Running feed pipeline...")
	report, err := s.runner.Run(ctx, season)

	status := "success"
	switch {
	case err != nil:
		status = "failed"
		metrics.RecordError("scheduler", "run")
		log.Error().Err(err).Int("season", season).Msg("Feed run failed")
	case report != nil && report.AbortedAt != "":
		status = "empty"
	}
	metrics.RecordRun(status, time.Since(start).Seconds())

	if report != nil {
		s.mu.Lock()
		s.last = report
		s.mu.Unlock()
	}

	log.Info().
		Str("status", status).
		Dur("duration", time.Since(start)).
		Msg("Feed run finished")
}

// LastReport returns the report of the most recent run, or nil
func (s *Scheduler) LastReport() *pipeline.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Info().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
