package probe

import (
	"context"
	"net"
	"time"
)

const DefaultConnectTimeout = 3 * time.Second

type TCPChecker struct {
	Timeout time.Duration
	dialer  net.Dialer
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &TCPChecker{Timeout: timeout}
}

// Check opens and immediately closes a TCP connection to target.
func (c *TCPChecker) Check(ctx context.Context, target string) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := c.dialer.DialContext(ctx, "tcp", target)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return CheckResult{Success: false, Message: err.Error(), LatencyMS: latency}
	}
	_ = conn.Close()
	return CheckResult{Success: true, Message: "connected", LatencyMS: latency}
}
