package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SweepHeartbeats evaluates every configured check id in turn. Each id is
// independent: a failure is logged and collected, and the sweep continues.
func (d *Driver) SweepHeartbeats(ctx context.Context) error {
	start := time.Now()
	defer d.observeTick(monitorDeadman, start)

	tick := uuid.NewString()
	now := d.Clock.Now().Unix()
	log := d.Logger.With(zap.String("tick_id", tick))

	var errs error
	for _, id := range d.Config.CheckIDs {
		if ctx.Err() != nil {
			multierr.AppendInto(&errs, ctx.Err())
			break
		}
		out, err := d.Heartbeat.Evaluate(ctx, id, now)
		d.observe(monitorDeadman, out, err)
		if err != nil {
			log.Warn("deadman_evaluate_error", zap.String("check_id", id), zap.Error(err))
			multierr.AppendInto(&errs, err)
			continue
		}
		log.Debug("deadman_evaluated", zap.String("check_id", id), zap.String("outcome", string(out)))
	}

	if errs != nil {
		log.Warn("deadman_tick_error", zap.Int("failed", len(multierr.Errors(errs))), zap.Int("checks", len(d.Config.CheckIDs)))
	}
	return errs
}
