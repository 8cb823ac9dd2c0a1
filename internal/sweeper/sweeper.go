// Package sweeper removes expired bookings on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the sweep shortly after midnight UTC.
const DefaultSchedule = "5 0 * * *"

// Target deletes bookings dated before today and reports how many it removed.
type Target interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Runner triggers a Target on a cron schedule.
type Runner struct {
	target   Target
	spec     string
	schedule cron.Schedule
	timeout  time.Duration
	logger   *slog.Logger
}

// Option customises a Runner.
type Option func(*Runner)

// WithTimeout bounds a single sweep. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// New parses spec as a standard five-field cron expression.
func New(target Target, spec string, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if target == nil {
		return nil, fmt.Errorf("sweeper: target is nil")
	}
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("sweeper: parse schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		target:   target,
		spec:     spec,
		schedule: schedule,
		timeout:  time.Minute,
		logger:   logger.With("component", "sweeper"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Next returns the first activation strictly after t.
func (r *Runner) Next(t time.Time) time.Time {
	return r.schedule.Next(t)
}

// RunOnce performs a single sweep.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := r.target.SweepExpired(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "sweep failed", "error", err, "duration", time.Since(start))
		return 0, err
	}
	r.logger.InfoContext(ctx, "sweep completed", "deleted", n, "duration", time.Since(start))
	return n, nil
}

// Run sweeps once immediately and then on every activation of the schedule
// until ctx is cancelled. A sweep still running when the next activation
// fires causes that activation to be skipped.
func (r *Runner) Run(ctx context.Context) error {
	cl := cronLogger{logger: r.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(r.schedule, cron.FuncJob(func() {
		_, _ = r.RunOnce(ctx)
	}))

	_, _ = r.RunOnce(ctx)

	r.logger.InfoContext(ctx, "sweeper started", "schedule", r.spec, "next_run", r.Next(time.Now().UTC()))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info("sweeper stopped")
	return nil
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
