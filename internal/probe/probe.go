package probe

import "context"

// CheckResult is the unified result of a single probe.
type CheckResult struct {
	Success   bool    `json:"success"`
	LatencyMS float64 `json:"latency_ms,omitempty"`
	Message   string  `json:"message"`
}

// Checker performs a single reachability check for a "host:port" target.
// It must return within its own timeout and report failures in the result,
// never as a panic or an indefinite block.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
