package notify

import (
	"context"
	"fmt"
)

type Kind string

const (
	KindDown      Kind = "down"
	KindReminder  Kind = "reminder"
	KindRecovered Kind = "recovered"
)

// Alert is one transition notification. Subject names the target
// (check id or address:port); Detail is optional extra context.
type Alert struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Detail  string `json:"detail,omitempty"`
}

// Text renders the alert as plain text.
func (a Alert) Text() string {
	s := a.Title + ": " + a.Subject
	if a.Detail != "" {
		s += "\n" + a.Detail
	}
	return s
}

type Notifier interface {
	Send(ctx context.Context, a Alert) error
}

// SendError is returned when a transport answered with a non-2xx status.
type SendError struct {
	Transport string
	Status    int
	Body      string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s send failed: %d %s", e.Transport, e.Status, e.Body)
}
