package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamed0406/watchdog/internal/config"
)

func TestSendPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ping/backup" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false,"error":"unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"checkId":"backup","lastPingAt":1700000000}`))
	}))
	defer srv.Close()

	last, err := sendPing(context.Background(), srv.Client(), srv.URL+"/", "s3cret", "backup")
	require.NoError(t, err)
	require.EqualValues(t, 1_700_000_000, last)

	_, err = sendPing(context.Background(), srv.Client(), srv.URL, "wrong", "backup")
	require.ErrorContains(t, err, "401")
}

func TestProbeCmd(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"probe", ln.Addr().String()})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "reachable")

	cmd = newRootCmd()
	cmd.SetArgs([]string{"probe", "no-port"})
	require.ErrorContains(t, cmd.Execute(), "bad target")
}

func TestPreflight(t *testing.T) {
	good := &config.Config{
		Store:   config.StoreConfig{Driver: "bolt", BoltPath: "watchdog.db"},
		Notify:  config.NotifyConfig{Driver: "slack", SlackWebhook: "https://hooks.example/x"},
		Deadman: config.DeadmanConfig{AuthToken: "s3cret", CheckIDs: []string{"backup"}},
	}
	var out, errOut bytes.Buffer
	require.False(t, preflight(&out, &errOut, good))
	require.Contains(t, out.String(), "preflight passed")

	bad := &config.Config{
		Store:  config.StoreConfig{Driver: "postgres"},
		Notify: config.NotifyConfig{Driver: "telegram"},
	}
	out.Reset()
	errOut.Reset()
	require.True(t, preflight(&out, &errOut, bad))
	require.Contains(t, errOut.String(), "DEADMAN_AUTH_TOKEN")
	require.Contains(t, errOut.String(), "DATABASE_URL")
	require.Contains(t, errOut.String(), "TELEGRAM_BOT_TOKEN")
	require.NotContains(t, out.String(), "preflight passed")
}
