package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/httpapi/middleware"
	"github.com/hamed0406/watchdog/internal/metrics"
	"github.com/hamed0406/watchdog/internal/monitor"
)

// Pinger records heartbeats; *monitor.Heartbeat satisfies it.
type Pinger interface {
	Ping(ctx context.Context, checkID string, now int64) (domain.CheckState, error)
}

type Options struct {
	AuthToken      string
	AllowedOrigins []string
	PingRPM        int
	PingBurst      int
}

type Server struct {
	Logger  *zap.Logger
	Pinger  Pinger
	Clock   clockwork.Clock
	Metrics *metrics.Metrics
	Opts    Options
}

func NewServer(l *zap.Logger, p Pinger, clock clockwork.Clock, m *metrics.Metrics, opts Options) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Server{Logger: l, Pinger: p, Clock: clock, Metrics: m, Opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.Recoverer)
	if len(s.Opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.Opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.With(
		middleware.RateLimitWithClock(s.Clock, s.Opts.PingRPM, s.Opts.PingBurst),
		middleware.RequireBearer(s.Opts.AuthToken),
	).Post("/ping/{checkID}", s.handlePing)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
	})
	return r
}

type pingResponse struct {
	OK         bool   `json:"ok"`
	CheckID    string `json:"checkId"`
	LastPingAt int64  `json:"lastPingAt"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "checkID")
	now := s.Clock.Now().Unix()

	st, err := s.Pinger.Ping(r.Context(), id, now)
	if errors.Is(err, monitor.ErrEmptyCheckID) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "missing check id"})
		return
	}
	if err != nil {
		s.Logger.Error("deadman_ping_failed", zap.String("check_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal error"})
		return
	}

	if s.Metrics != nil {
		s.Metrics.PingsReceived.WithLabelValues(id).Inc()
	}
	s.Logger.Info("deadman_ping",
		zap.String("check_id", id),
		zap.Int64("last_ping_at", st.LastPingAt),
		zap.String("request_id", chimw.GetReqID(r.Context())),
	)
	writeJSON(w, http.StatusOK, pingResponse{OK: true, CheckID: id, LastPingAt: st.LastPingAt})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
