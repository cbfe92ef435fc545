package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SweepPorts probes every configured port concurrently (bounded by
// Concurrency) and returns once all of them have settled. Per-port errors
// are collected, never short-circuit the others.
func (d *Driver) SweepPorts(ctx context.Context) error {
	addr := d.Config.TargetAddress
	if addr == "" || len(d.Config.TargetPorts) == 0 {
		return nil
	}

	start := time.Now()
	defer d.observeTick(monitorPortwatch, start)

	tick := uuid.NewString()
	now := d.Clock.Now().Unix()
	log := d.Logger.With(zap.String("tick_id", tick), zap.String("target", addr))

	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	g.SetLimit(d.Config.Concurrency)

	for _, port := range d.Config.TargetPorts {
		port := port
		g.Go(func() error {
			out, err := d.Ports.Evaluate(ctx, addr, port, now)
			d.observe(monitorPortwatch, out, err)
			if err != nil {
				log.Warn("portwatch_evaluate_error", zap.Int("port", port), zap.Error(err))
				mu.Lock()
				multierr.AppendInto(&errs, err)
				mu.Unlock()
				return nil
			}
			log.Debug("portwatch_evaluated", zap.Int("port", port), zap.String("outcome", string(out)))
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil {
		log.Warn("portwatch_tick_error", zap.Int("failed", len(multierr.Errors(errs))), zap.Int("ports", len(d.Config.TargetPorts)))
	}
	return errs
}
