package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
}

// NATS publishes each alert as a JSON message on a fixed subject.
type NATS struct {
	conn    publisher
	close   func()
	Subject string
}

func NewNATS(url, subject string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("watchdog"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATS{
		conn:    conn,
		close:   func() { _ = conn.Drain() },
		Subject: subject,
	}, nil
}

type natsMessage struct {
	Alert
	Text string `json:"text"`
}

func (n *NATS) Send(ctx context.Context, a Alert) error {
	data, err := json.Marshal(natsMessage{Alert: a, Text: a.Text()})
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.Subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	timeout := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	// Publish is buffered; flushing surfaces a dead connection as an error.
	if err := n.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

func (n *NATS) Close() {
	if n.close != nil {
		n.close()
	}
}
