package domain

import "fmt"

// FormatDurationCompact renders a second count using the two largest units,
// e.g. 90000 -> "1d1h", 7265 -> "2h1m", 125 -> "2m5s", 45 -> "45s".
func FormatDurationCompact(total int64) string {
	if total < 0 {
		total = 0
	}
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
