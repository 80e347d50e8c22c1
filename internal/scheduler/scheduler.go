package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const parserOptions = cron.SecondOptional | cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// Job is one scheduled fan-out.
type Job func(ctx context.Context)

// Scheduler runs a Job on a cron schedule. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger zerolog.Logger
	cancel context.CancelFunc
}

func New(spec string, job Job, logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "Scheduler").Logger()
	cl := cronLogger{l: logger}
	c := cron.New(
		cron.WithParser(cron.NewParser(parserOptions)),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c, spec: spec, job: job, logger: logger}
}

// ValidateSpec reports whether spec is accepted by the scheduler.
func ValidateSpec(spec string) error {
	if _, err := cron.NewParser(parserOptions).Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Start schedules the job. It does not block.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.spec).Msg("scheduler started")
	return nil
}

// Stop cancels the running job, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("all scheduled runs finished, scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	s.logger.Debug().Msg("scheduled run starting")
	s.job(ctx)
	s.logger.Info().Dur("duration", time.Since(start)).Msg("scheduled run completed")
}

type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
