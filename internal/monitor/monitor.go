// Package monitor holds the deadman and port watcher state machines.
//
// Both monitors follow the same rule: state is written only after the
// notification for a transition has been sent successfully. A failed send
// leaves the stored record untouched so the next tick re-alerts.
package monitor

import "sync"

// Outcome describes what one evaluation did.
type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped"    // no state recorded yet
	OutcomeNoop       Outcome = "noop"       // steady state, nothing written
	OutcomeSuppressed Outcome = "suppressed" // still down, inside the dedupe or reminder window
	OutcomeDown       Outcome = "down"
	OutcomeReminder   Outcome = "reminder"
	OutcomeRecovered  Outcome = "recovered"
	OutcomeStreak     Outcome = "streak" // failure counted, threshold not reached
	OutcomeReset      Outcome = "reset"  // partial failure streak cleared
)

// Alerted reports whether the outcome sent a notification.
func (o Outcome) Alerted() bool {
	return o == OutcomeDown || o == OutcomeReminder || o == OutcomeRecovered
}

// keyLock serializes read-modify-write sequences on the same state key.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyLock) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLockEntry)
	}
	e := k.locks[key]
	if e == nil {
		e = &keyLockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
