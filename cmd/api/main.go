package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/httpapi"
	"github.com/hamed0406/watchdog/internal/logging"
	"github.com/hamed0406/watchdog/internal/metrics"
	"github.com/hamed0406/watchdog/internal/monitor"
	"github.com/hamed0406/watchdog/internal/probe"
	"github.com/hamed0406/watchdog/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, closeNotifier, err := newNotifier(cfg.Notify, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	if cfg.Deadman.AuthToken == "" {
		logger.Warn("deadman_auth_token_missing", zap.String("effect", "all pings are rejected"))
	}

	clock := clockwork.NewRealClock()
	m := metrics.New()
	hb := monitor.NewHeartbeat(store, notifier, monitor.HeartbeatConfig{
		TimeoutSeconds: cfg.Deadman.TimeoutSeconds,
		DedupeSeconds:  cfg.Deadman.DedupeSeconds,
	}, logger)
	pw := monitor.NewPortWatch(store, notifier, probe.NewTCPChecker(cfg.Portwatch.ConnectTimeout), monitor.PortConfig{
		FailureThreshold: cfg.Portwatch.FailureThreshold,
		ReminderSeconds:  cfg.Portwatch.ReminderSeconds,
	}, logger)

	driver := scheduler.NewDriver(logger, clock, m, hb, pw, scheduler.DriverConfig{
		CheckIDs:          cfg.Deadman.CheckIDs,
		DeadmanSchedule:   cfg.Deadman.Schedule,
		TargetAddress:     cfg.Portwatch.TargetAddress,
		TargetPorts:       cfg.Portwatch.Ports,
		PortwatchSchedule: cfg.Portwatch.Schedule,
		Concurrency:       cfg.Portwatch.Concurrency,
	})

	api := httpapi.NewServer(logger, hb, clock, m, httpapi.Options{
		AuthToken:      cfg.Deadman.AuthToken,
		AllowedOrigins: cfg.AllowedOrigins,
		PingRPM:        cfg.PingRPM,
		PingBurst:      cfg.PingBurst,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return driver.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("notifier", cfg.Notify.Driver),
			zap.Strings("check_ids", cfg.Deadman.CheckIDs),
			zap.String("target", cfg.Portwatch.TargetAddress),
			zap.Ints("ports", cfg.Portwatch.Ports),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("api_shutdown")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
