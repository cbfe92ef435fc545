package monitor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/repo"
)

const (
	DefaultTimeoutSeconds int64 = 600
	DefaultDedupeSeconds  int64 = 3600
)

var ErrEmptyCheckID = errors.New("empty check id")

type HeartbeatConfig struct {
	TimeoutSeconds int64 // > 0
	DedupeSeconds  int64 // >= 0
}

// Heartbeat is the deadman switch: it records pings and alerts when a check
// stops pinging for longer than the timeout.
type Heartbeat struct {
	Store    repo.StateStore
	Notifier notify.Notifier
	Config   HeartbeatConfig
	Logger   *zap.Logger

	locks keyLock
}

func NewHeartbeat(store repo.StateStore, n notify.Notifier, cfg HeartbeatConfig, logger *zap.Logger) *Heartbeat {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.DedupeSeconds < 0 {
		cfg.DedupeSeconds = DefaultDedupeSeconds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heartbeat{Store: store, Notifier: n, Config: cfg, Logger: logger}
}

// Ping records a liveness signal for checkID at now. A first ping creates the
// record as up; later pings only move lastPingAt.
func (h *Heartbeat) Ping(ctx context.Context, checkID string, now int64) (domain.CheckState, error) {
	if checkID == "" {
		return domain.CheckState{}, ErrEmptyCheckID
	}
	key := repo.CheckKey(checkID)
	defer h.locks.lock(key)()

	cur, err := repo.Load[domain.CheckState](ctx, h.Store, key)
	if err != nil {
		return domain.CheckState{}, err
	}
	next := domain.CheckState{LastPingAt: now, Status: domain.StatusUp}
	if cur.Found {
		next = cur.State
		next.LastPingAt = now
	}
	if err := repo.Save(ctx, h.Store, key, next); err != nil {
		return domain.CheckState{}, err
	}
	return next, nil
}

// Evaluate runs one deadman pass for checkID.
func (h *Heartbeat) Evaluate(ctx context.Context, checkID string, now int64) (Outcome, error) {
	key := repo.CheckKey(checkID)
	defer h.locks.lock(key)()

	cur, err := repo.Load[domain.CheckState](ctx, h.Store, key)
	if err != nil {
		return "", err
	}
	if !cur.Found {
		// never alert before the first ping
		return OutcomeSkipped, nil
	}
	st := cur.State

	age := now - st.LastPingAt
	if age > h.Config.TimeoutSeconds {
		if st.Status == domain.StatusDown && st.LastDownNotifiedAt != nil &&
			now-*st.LastDownNotifiedAt < h.Config.DedupeSeconds {
			return OutcomeSuppressed, nil
		}
		err := h.Notifier.Send(ctx, notify.Alert{
			Kind:    notify.KindDown,
			Title:   "DEADMAN DOWN",
			Subject: checkID,
			Detail:  "Last ping: " + domain.FormatDurationCompact(age) + " ago",
		})
		if err != nil {
			return "", fmt.Errorf("notify down %s: %w", checkID, err)
		}
		st.Status = domain.StatusDown
		st.LastDownNotifiedAt = domain.Unix(now)
		if err := repo.Save(ctx, h.Store, key, st); err != nil {
			return "", err
		}
		h.Logger.Info("deadman_down", zap.String("check_id", checkID), zap.Int64("age_seconds", age))
		return OutcomeDown, nil
	}

	if st.Status == domain.StatusDown {
		err := h.Notifier.Send(ctx, notify.Alert{
			Kind:    notify.KindRecovered,
			Title:   "DEADMAN RECOVERED",
			Subject: checkID,
		})
		if err != nil {
			return "", fmt.Errorf("notify recovered %s: %w", checkID, err)
		}
		st.Status = domain.StatusUp
		st.LastUpNotifiedAt = domain.Unix(now)
		if err := repo.Save(ctx, h.Store, key, st); err != nil {
			return "", err
		}
		h.Logger.Info("deadman_recovered", zap.String("check_id", checkID))
		return OutcomeRecovered, nil
	}

	return OutcomeNoop, nil
}
