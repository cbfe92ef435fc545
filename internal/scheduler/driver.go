package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/metrics"
	"github.com/hamed0406/watchdog/internal/monitor"
)

const (
	monitorDeadman   = "deadman"
	monitorPortwatch = "portwatch"
)

type DriverConfig struct {
	CheckIDs        []string
	DeadmanSchedule string

	TargetAddress     string
	TargetPorts       []int
	PortwatchSchedule string
	Concurrency       int
}

// Driver runs one evaluation pass over every configured target per tick.
type Driver struct {
	Logger    *zap.Logger
	Clock     clockwork.Clock
	Metrics   *metrics.Metrics
	Heartbeat *monitor.Heartbeat
	Ports     *monitor.PortWatch
	Config    DriverConfig
}

func NewDriver(
	logger *zap.Logger,
	clock clockwork.Clock,
	m *metrics.Metrics,
	hb *monitor.Heartbeat,
	pw *monitor.PortWatch,
	cfg DriverConfig,
) *Driver {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Driver{
		Logger:    logger,
		Clock:     clock,
		Metrics:   m,
		Heartbeat: hb,
		Ports:     pw,
		Config:    cfg,
	}
}

// Run registers both sweeps on their cron schedules and blocks until ctx is
// cancelled. A sweep still running when its next tick fires is skipped.
func (d *Driver) Run(ctx context.Context) error {
	cl := cronLogger{d.Logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if len(d.Config.CheckIDs) > 0 {
		if _, err := c.AddFunc(d.Config.DeadmanSchedule, func() { _ = d.SweepHeartbeats(ctx) }); err != nil {
			return fmt.Errorf("deadman schedule %q: %w", d.Config.DeadmanSchedule, err)
		}
	} else {
		d.Logger.Info("deadman_disabled")
	}
	if d.Config.TargetAddress != "" && len(d.Config.TargetPorts) > 0 {
		if _, err := c.AddFunc(d.Config.PortwatchSchedule, func() { _ = d.SweepPorts(ctx) }); err != nil {
			return fmt.Errorf("portwatch schedule %q: %w", d.Config.PortwatchSchedule, err)
		}
	} else {
		d.Logger.Info("portwatch_disabled")
	}

	c.Start()
	d.Logger.Info("scheduler_started", zap.Int("entries", len(c.Entries())))
	<-ctx.Done()
	<-c.Stop().Done()
	d.Logger.Info("scheduler_stopped")
	return nil
}

func (d *Driver) observe(name string, out monitor.Outcome, err error) {
	if d.Metrics == nil {
		return
	}
	if err != nil {
		d.Metrics.Errors.WithLabelValues(name).Inc()
		return
	}
	d.Metrics.Evaluations.WithLabelValues(name, string(out)).Inc()
}

func (d *Driver) observeTick(name string, start time.Time) {
	if d.Metrics == nil {
		return
	}
	d.Metrics.TickDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// cronLogger adapts zap to cron's logr-style logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron_"+msg, append(keysAndValues, "error", err)...)
}
