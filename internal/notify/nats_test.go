package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subject  string
	data     []byte
	pubErr   error
	flushErr error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.pubErr
}

func (f *fakePublisher) FlushTimeout(time.Duration) error { return f.flushErr }

func TestNATS_PublishesJSON(t *testing.T) {
	fp := &fakePublisher{}
	n := &NATS{conn: fp, Subject: "watchdog.alerts"}

	err := n.Send(context.Background(), Alert{Kind: KindReminder, Title: "PORT STILL DOWN", Subject: "h:22"})
	require.NoError(t, err)
	require.Equal(t, "watchdog.alerts", fp.subject)

	var msg map[string]string
	require.NoError(t, json.Unmarshal(fp.data, &msg))
	require.Equal(t, "reminder", msg["kind"])
	require.Equal(t, "PORT STILL DOWN: h:22", msg["text"])
}

func TestNATS_FlushErrorPropagates(t *testing.T) {
	n := &NATS{conn: &fakePublisher{flushErr: errors.New("no responders")}, Subject: "s"}
	require.Error(t, n.Send(context.Background(), Alert{}))
}
