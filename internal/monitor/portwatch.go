package monitor

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/probe"
	"github.com/hamed0406/watchdog/internal/repo"
)

const (
	DefaultFailureThreshold       = 3
	DefaultReminderSeconds  int64 = 21600
)

type PortConfig struct {
	FailureThreshold int   // >= 1
	ReminderSeconds  int64 // 0 disables reminders
}

// PortWatch probes address:port targets and alerts once a failure streak
// reaches the threshold, reminds while down, and alerts on recovery.
type PortWatch struct {
	Store    repo.StateStore
	Notifier notify.Notifier
	Checker  probe.Checker
	Config   PortConfig
	Logger   *zap.Logger

	locks keyLock
}

func NewPortWatch(store repo.StateStore, n notify.Notifier, chk probe.Checker, cfg PortConfig, logger *zap.Logger) *PortWatch {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.ReminderSeconds < 0 {
		cfg.ReminderSeconds = DefaultReminderSeconds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortWatch{Store: store, Notifier: n, Checker: chk, Config: cfg, Logger: logger}
}

// Evaluate probes address:port once and applies the resulting transition.
func (p *PortWatch) Evaluate(ctx context.Context, address string, port int, now int64) (Outcome, error) {
	key := repo.PortKey(address, port)
	defer p.locks.lock(key)()

	cur, err := repo.Load[domain.PortState](ctx, p.Store, key)
	if err != nil {
		return "", err
	}
	st := domain.DefaultPortState()
	if cur.Found {
		st = cur.State
	}

	subject := address + ":" + strconv.Itoa(port)
	res := p.Checker.Check(ctx, repo.HostPort(address, port))
	p.Logger.Debug("portwatch_probe",
		zap.String("target", subject),
		zap.Bool("up", res.Success),
		zap.Float64("latency_ms", res.LatencyMS),
		zap.String("reason", res.Message),
	)

	if res.Success {
		return p.reachable(ctx, key, subject, st, now)
	}
	if st.Status == domain.StatusDown {
		return p.remind(ctx, key, subject, st, now)
	}
	return p.countFailure(ctx, key, subject, st, now)
}

func (p *PortWatch) reachable(ctx context.Context, key, subject string, st domain.PortState, now int64) (Outcome, error) {
	if st.Status == domain.StatusDown {
		a := notify.Alert{Kind: notify.KindRecovered, Title: "PORT RECOVERED", Subject: subject}
		if st.DownAt != nil {
			a.Detail = "Down for " + domain.FormatDurationCompact(now-*st.DownAt)
		}
		if err := p.Notifier.Send(ctx, a); err != nil {
			return "", fmt.Errorf("notify recovered %s: %w", subject, err)
		}
		if err := repo.Save(ctx, p.Store, key, domain.DefaultPortState()); err != nil {
			return "", err
		}
		p.Logger.Info("portwatch_recovered", zap.String("target", subject))
		return OutcomeRecovered, nil
	}
	if st.ConsecutiveFailures != 0 {
		st.ConsecutiveFailures = 0
		st.FirstFailureAt = nil
		if err := repo.Save(ctx, p.Store, key, st); err != nil {
			return "", err
		}
		return OutcomeReset, nil
	}
	return OutcomeNoop, nil
}

func (p *PortWatch) remind(ctx context.Context, key, subject string, st domain.PortState, now int64) (Outcome, error) {
	last := now
	switch {
	case st.LastReminderAt != nil:
		last = *st.LastReminderAt
	case st.DownAt != nil:
		last = *st.DownAt
	}
	if p.Config.ReminderSeconds <= 0 || now-last < p.Config.ReminderSeconds {
		return OutcomeSuppressed, nil
	}
	a := notify.Alert{Kind: notify.KindReminder, Title: "PORT STILL DOWN", Subject: subject}
	if st.DownAt != nil {
		a.Detail = "Down for " + domain.FormatDurationCompact(now-*st.DownAt)
	}
	if err := p.Notifier.Send(ctx, a); err != nil {
		return "", fmt.Errorf("notify reminder %s: %w", subject, err)
	}
	st.LastReminderAt = domain.Unix(now)
	if err := repo.Save(ctx, p.Store, key, st); err != nil {
		return "", err
	}
	p.Logger.Info("portwatch_reminder", zap.String("target", subject))
	return OutcomeReminder, nil
}

func (p *PortWatch) countFailure(ctx context.Context, key, subject string, st domain.PortState, now int64) (Outcome, error) {
	failures := st.ConsecutiveFailures + 1
	firstFailureAt := st.FirstFailureAt
	if firstFailureAt == nil {
		firstFailureAt = domain.Unix(now)
	}

	if failures < p.Config.FailureThreshold {
		st.ConsecutiveFailures = failures
		st.FirstFailureAt = firstFailureAt
		if err := repo.Save(ctx, p.Store, key, st); err != nil {
			return "", err
		}
		return OutcomeStreak, nil
	}

	err := p.Notifier.Send(ctx, notify.Alert{
		Kind:    notify.KindDown,
		Title:   "PORT DOWN",
		Subject: subject,
		Detail:  fmt.Sprintf("%d consecutive failed probes", failures),
	})
	if err != nil {
		return "", fmt.Errorf("notify down %s: %w", subject, err)
	}
	next := domain.PortState{
		Status:              domain.StatusDown,
		ConsecutiveFailures: failures,
		FirstFailureAt:      firstFailureAt,
		DownAt:              domain.Unix(now),
		LastReminderAt:      domain.Unix(now),
	}
	if err := repo.Save(ctx, p.Store, key, next); err != nil {
		return "", err
	}
	p.Logger.Info("portwatch_down", zap.String("target", subject), zap.Int("failures", failures))
	return OutcomeDown, nil
}
