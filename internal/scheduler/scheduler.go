package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per cycle; cycle is zero-based.
type TickFunc func(ctx context.Context, cycle int) error

// Options tune scheduler behaviour.
type Options struct {
	Interval time.Duration
	Cycles   int
}

// Scheduler drives a fixed number of cycles on a fixed cadence.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Cycles <= 0 {
		panic("scheduler cycles must be positive")
	}
	if opts.Interval < 0 {
		panic("scheduler interval must not be negative")
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Logger(),
		wait:   waitContext,
	}
}

// Cycles returns the configured cycle count.
func (s *Scheduler) Cycles() int {
	return s.opts.Cycles
}

// Run invokes tick exactly Cycles times, pausing Interval between cycles but
// not after the last one. Tick errors are logged and do not stop the loop;
// only ctx cancellation ends it early.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	for cycle := 0; cycle < s.opts.Cycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.logger.Debug().Int("cycle", cycle+1).Int("of", s.opts.Cycles).Msg("executing cycle")
		if err := tick(ctx, cycle); err != nil {
			s.logger.Error().Err(err).Int("cycle", cycle+1).Msg("cycle execution failed")
		}

		if cycle == s.opts.Cycles-1 {
			break
		}

		s.logger.Debug().Dur("interval", s.opts.Interval).Msg("waiting for next cycle")
		if err := s.wait(ctx, s.opts.Interval); err != nil {
			return err
		}
	}
	return nil
}

func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
