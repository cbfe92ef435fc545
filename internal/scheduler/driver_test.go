package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/metrics"
	"github.com/hamed0406/watchdog/internal/monitor"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/probe"
	"github.com/hamed0406/watchdog/internal/repo/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- fakes ---

// flakyNotifier fails every alert whose subject contains failFor.
type flakyNotifier struct {
	mu      sync.Mutex
	failFor string
	sent    []notify.Alert
}

func (f *flakyNotifier) Send(_ context.Context, a notify.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor != "" && strings.Contains(a.Subject, f.failFor) {
		return errors.New("telegram unreachable")
	}
	f.sent = append(f.sent, a)
	return nil
}

func (f *flakyNotifier) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, a := range f.sent {
		out = append(out, a.Subject)
	}
	return out
}

// portChecker reports the ports in open as reachable and tracks peak concurrency.
type portChecker struct {
	open map[string]bool

	mu       sync.Mutex
	inflight int
	peak     int
}

func (p *portChecker) Check(_ context.Context, target string) probe.CheckResult {
	p.mu.Lock()
	p.inflight++
	if p.inflight > p.peak {
		p.peak = p.inflight
	}
	p.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	p.mu.Lock()
	p.inflight--
	p.mu.Unlock()
	return probe.CheckResult{Success: p.open[target]}
}

const epoch int64 = 1_700_000_000

func newTestDriver(t *testing.T, n notify.Notifier, chk probe.Checker, cfg DriverConfig) (*Driver, clockwork.FakeClock, *metrics.Metrics) {
	t.Helper()
	store := memory.New()
	log := zap.NewNop()
	hb := monitor.NewHeartbeat(store, n, monitor.HeartbeatConfig{TimeoutSeconds: 600, DedupeSeconds: 3600}, log)
	pw := monitor.NewPortWatch(store, n, chk, monitor.PortConfig{FailureThreshold: 1, ReminderSeconds: 0}, log)
	clk := clockwork.NewFakeClockAt(time.Unix(epoch, 0))
	m := metrics.New()
	return NewDriver(log, clk, m, hb, pw, cfg), clk, m
}

// --- tests ---

func TestSweepHeartbeats_FailureDoesNotStopOtherChecks(t *testing.T) {
	n := &flakyNotifier{failFor: "b"}
	d, clk, m := newTestDriver(t, n, &portChecker{}, DriverConfig{CheckIDs: []string{"a", "b", "c", "never-pinged"}})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := d.Heartbeat.Ping(ctx, id, clk.Now().Unix())
		require.NoError(t, err)
	}
	clk.Advance(601 * time.Second)

	err := d.SweepHeartbeats(ctx)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	require.Equal(t, []string{"a", "c"}, n.subjects())

	require.Equal(t, 2.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("deadman", "down")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("deadman", "skipped")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("deadman")))

	// b is retried on the next tick once the transport is back
	n.mu.Lock()
	n.failFor = ""
	n.mu.Unlock()
	clk.Advance(60 * time.Second)
	require.NoError(t, d.SweepHeartbeats(ctx))
	require.Equal(t, []string{"a", "c", "b"}, n.subjects())
}

func TestSweepPorts_ConcurrentBoundedAndIsolated(t *testing.T) {
	chk := &portChecker{open: map[string]bool{"10.1.1.1:80": true}}
	n := &flakyNotifier{failFor: ":22"}
	ports := []int{22, 80, 443, 5432, 6379, 8080}
	d, _, _ := newTestDriver(t, n, chk, DriverConfig{
		TargetAddress: "10.1.1.1",
		TargetPorts:   ports,
		Concurrency:   3,
	})

	err := d.SweepPorts(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1, "only port 22's alert failed")
	require.ElementsMatch(t,
		[]string{"10.1.1.1:443", "10.1.1.1:5432", "10.1.1.1:6379", "10.1.1.1:8080"},
		n.subjects())
	require.LessOrEqual(t, chk.peak, 3)
	require.GreaterOrEqual(t, chk.peak, 1)
}

func TestSweepPorts_NoTargetIsNoop(t *testing.T) {
	chk := &portChecker{}
	d, _, _ := newTestDriver(t, &flakyNotifier{}, chk, DriverConfig{TargetPorts: []int{22}})
	require.NoError(t, d.SweepPorts(context.Background()))
	require.Zero(t, chk.peak)
}

func TestRun_StopsOnCancel(t *testing.T) {
	d, _, _ := newTestDriver(t, &flakyNotifier{}, &portChecker{}, DriverConfig{
		CheckIDs:          []string{"a"},
		DeadmanSchedule:   "* * * * *",
		TargetAddress:     "127.0.0.1",
		TargetPorts:       []int{1},
		PortwatchSchedule: "@every 1h",
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_InvalidScheduleFails(t *testing.T) {
	d, _, _ := newTestDriver(t, &flakyNotifier{}, &portChecker{}, DriverConfig{
		CheckIDs:        []string{"a"},
		DeadmanSchedule: "every now and then",
	})
	err := d.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "deadman schedule")
}

func TestRun_TickEvaluatesTargets(t *testing.T) {
	n := &flakyNotifier{}
	d, _, _ := newTestDriver(t, n, &portChecker{}, DriverConfig{
		TargetAddress:     "10.9.9.9",
		TargetPorts:       []int{25},
		PortwatchSchedule: "@every 1s",
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return len(n.subjects()) > 0 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	require.Equal(t, "10.9.9.9:25", n.subjects()[0])
}
