package domain

// Status is the up/down state of a monitored target as persisted.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

func (s Status) Valid() bool {
	return s == StatusUp || s == StatusDown
}

// CheckState is the deadman record for one check identifier.
// Timestamps are unix seconds.
type CheckState struct {
	LastPingAt         int64  `json:"lastPingAt"`
	Status             Status `json:"status"`
	LastDownNotifiedAt *int64 `json:"lastDownNotifiedAt,omitempty"`
	LastUpNotifiedAt   *int64 `json:"lastUpNotifiedAt,omitempty"`
}

func (s CheckState) Valid() bool {
	return s.Status.Valid()
}

// PortState is the port watcher record for one address:port pair.
type PortState struct {
	Status              Status `json:"status"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	FirstFailureAt      *int64 `json:"firstFailureAt,omitempty"`
	DownAt              *int64 `json:"downAt,omitempty"`
	LastReminderAt      *int64 `json:"lastReminderAt,omitempty"`
}

func (s PortState) Valid() bool {
	return s.Status.Valid() && s.ConsecutiveFailures >= 0
}

// DefaultPortState is assumed for a port that has no stored record.
func DefaultPortState() PortState {
	return PortState{Status: StatusUp}
}

// Unix returns a pointer to ts, for the optional timestamp fields.
func Unix(ts int64) *int64 {
	return &ts
}
