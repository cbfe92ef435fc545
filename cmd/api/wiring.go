package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/repo"
	"github.com/hamed0406/watchdog/internal/repo/bolt"
	"github.com/hamed0406/watchdog/internal/repo/memory"
	"github.com/hamed0406/watchdog/internal/repo/postgres"
)

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (repo.StateStore, func(), error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(), func() {}, nil
	case "bolt":
		s, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("store driver postgres needs DATABASE_URL")
		}
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newNotifier(cfg config.NotifyConfig, logger *zap.Logger) (notify.Notifier, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case "telegram":
		t := notify.NewTelegram(cfg.TelegramAPIBase, cfg.TelegramBotToken, cfg.TelegramChatID)
		if t == nil {
			return nil, nil, fmt.Errorf("telegram notifier needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		}
		return t, noop, nil
	case "slack":
		if cfg.SlackWebhook == "" {
			return nil, nil, fmt.Errorf("slack notifier needs SLACK_WEBHOOK_URL")
		}
		return notify.NewSlack(cfg.SlackWebhook), noop, nil
	case "nats":
		if cfg.NATSURL == "" {
			return nil, nil, fmt.Errorf("nats notifier needs NATS_URL")
		}
		n, err := notify.NewNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, nil, err
		}
		return n, n.Close, nil
	case "log", "":
		return notify.Log{Logger: logger}, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier %q", cfg.Driver)
	}
}
