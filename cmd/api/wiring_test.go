package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/repo/bolt"
	"github.com/hamed0406/watchdog/internal/repo/memory"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := openStore(ctx, config.StoreConfig{Driver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &memory.Store{}, s)
	closeFn()

	s, closeFn, err = openStore(ctx, config.StoreConfig{Driver: "bolt", BoltPath: filepath.Join(t.TempDir(), "w.db")}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &bolt.Store{}, s)
	closeFn()

	_, _, err = openStore(ctx, config.StoreConfig{Driver: "postgres"}, zap.NewNop())
	require.ErrorContains(t, err, "DATABASE_URL")

	_, _, err = openStore(ctx, config.StoreConfig{Driver: "redis"}, zap.NewNop())
	require.ErrorContains(t, err, "unknown store driver")
}

func TestNewNotifier(t *testing.T) {
	n, _, err := newNotifier(config.NotifyConfig{Driver: "log"}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, notify.Log{}, n)

	n, _, err = newNotifier(config.NotifyConfig{
		Driver:           "telegram",
		TelegramAPIBase:  notify.DefaultTelegramAPI,
		TelegramBotToken: "123:abc",
		TelegramChatID:   "-100",
	}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &notify.Telegram{}, n)

	n, _, err = newNotifier(config.NotifyConfig{Driver: "slack", SlackWebhook: "https://hooks.example/x"}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &notify.Slack{}, n)

	_, _, err = newNotifier(config.NotifyConfig{Driver: "telegram"}, zap.NewNop())
	require.Error(t, err)
	_, _, err = newNotifier(config.NotifyConfig{Driver: "nats"}, zap.NewNop())
	require.ErrorContains(t, err, "NATS_URL")
	_, _, err = newNotifier(config.NotifyConfig{Driver: "pager"}, zap.NewNop())
	require.ErrorContains(t, err, "unknown notifier")
}
