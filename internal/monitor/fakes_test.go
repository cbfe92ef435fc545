package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/probe"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
	fail   bool
}

func (r *recordingNotifier) Send(_ context.Context, a notify.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return &notify.SendError{Transport: "fake", Status: 502, Body: "bad gateway"}
	}
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, a.Title)
	}
	return out
}

// scriptedChecker returns the queued results in order, then keeps
// returning the last one.
type scriptedChecker struct {
	mu      sync.Mutex
	results []bool
	targets []string
}

func (s *scriptedChecker) Check(_ context.Context, target string) probe.CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, target)
	up := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	if up {
		return probe.CheckResult{Success: true, Message: "connected"}
	}
	return probe.CheckResult{Success: false, Message: "connection refused"}
}

func (s *scriptedChecker) push(up ...bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]bool(nil), up...)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("kv unavailable")
}
func (brokenStore) Put(context.Context, string, []byte) error { return errors.New("kv unavailable") }
