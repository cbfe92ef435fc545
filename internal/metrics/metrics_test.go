package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersExposed(t *testing.T) {
	m := New()
	m.Evaluations.WithLabelValues("deadman", "down").Inc()
	m.Evaluations.WithLabelValues("deadman", "down").Inc()
	m.PingsReceived.WithLabelValues("backup").Inc()

	require.Equal(t, 2.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("deadman", "down")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	require.True(t, strings.Contains(string(body), `watchdog_pings_received_total{check_id="backup"} 1`), string(body))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// two instances must not collide on registration
	a, b := New(), New()
	require.NotSame(t, a.Registry(), b.Registry())
}
