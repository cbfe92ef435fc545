package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/probe"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "watchdogctl",
		Short:         "Operator tool for the watchdog service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPingCmd(), newProbeCmd(), newPreflightCmd())
	return root
}

func newPingCmd() *cobra.Command {
	var (
		apiBase string
		token   string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ping <check-id>",
		Short: "Send a heartbeat for a deadman check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("DEADMAN_AUTH_TOKEN")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			last, err := sendPing(ctx, http.DefaultClient, apiBase, token, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok %s lastPingAt=%d\n", args[0], last)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiBase, "api", envOr("API_BASE", "http://localhost:8080"), "watchdog API base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer secret (default $DEADMAN_AUTH_TOKEN)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}

func sendPing(ctx context.Context, c *http.Client, apiBase, token, checkID string) (int64, error) {
	url := strings.TrimRight(apiBase, "/") + "/ping/" + checkID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.Do(req)
	if err != nil {
		return 0, fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out struct {
		LastPingAt int64 `json:"lastPingAt"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return out.LastPingAt, nil
}

func newProbeCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "probe <host:port>",
		Short: "Run a single TCP reachability probe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := net.SplitHostPort(args[0]); err != nil {
				return fmt.Errorf("bad target %q: %w", args[0], err)
			}
			res := probe.NewTCPChecker(timeout).Check(cmd.Context(), args[0])
			if !res.Success {
				return fmt.Errorf("%s unreachable: %s", args[0], res.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s reachable in %.1fms\n", args[0], res.LatencyMS)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", probe.DefaultConnectTimeout, "connect timeout")
	return cmd
}

func newPreflightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check the service configuration before deploying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if failed := preflight(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg); failed {
				return fmt.Errorf("preflight failed")
			}
			return nil
		},
	}
}

// preflight prints one line per finding and reports whether any were fatal.
func preflight(out, errOut io.Writer, cfg *config.Config) (failed bool) {
	fail := func(msg string) {
		fmt.Fprintln(errOut, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(errOut, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }

	if cfg.Deadman.AuthToken == "" {
		fail("DEADMAN_AUTH_TOKEN is empty (every ping will get 401).")
	} else {
		ok("DEADMAN_AUTH_TOKEN present")
	}

	if len(cfg.Deadman.CheckIDs) == 0 {
		warn("DEADMAN_CHECK_IDS empty; no deadman checks will be evaluated.")
	} else {
		ok("DEADMAN_CHECK_IDS=" + strings.Join(cfg.Deadman.CheckIDs, ","))
	}

	switch {
	case cfg.Portwatch.TargetAddress == "" && len(cfg.Portwatch.Ports) > 0:
		warn("PORTWATCH_PORTS set but PORTWATCH_TARGET_IP empty; port watcher is idle.")
	case cfg.Portwatch.TargetAddress != "" && len(cfg.Portwatch.Ports) == 0:
		warn("PORTWATCH_TARGET_IP set but no valid PORTWATCH_PORTS; port watcher is idle.")
	case cfg.Portwatch.TargetAddress != "":
		ok(fmt.Sprintf("portwatch %s ports=%v", cfg.Portwatch.TargetAddress, cfg.Portwatch.Ports))
	}

	switch cfg.Store.Driver {
	case "memory":
		warn("STORE_DRIVER=memory; monitor state is lost on restart.")
	case "bolt":
		ok("STORE_DRIVER=bolt path=" + cfg.Store.BoltPath)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			fail("STORE_DRIVER=postgres but DATABASE_URL is empty.")
		} else {
			ok("STORE_DRIVER=postgres")
		}
	default:
		fail("STORE_DRIVER " + cfg.Store.Driver + " is not one of memory, bolt, postgres.")
	}

	switch cfg.Notify.Driver {
	case "telegram":
		if cfg.Notify.TelegramBotToken == "" || cfg.Notify.TelegramChatID == "" {
			fail("NOTIFIER=telegram needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.")
		} else {
			ok("NOTIFIER=telegram")
		}
	case "slack":
		if cfg.Notify.SlackWebhook == "" {
			fail("NOTIFIER=slack needs SLACK_WEBHOOK_URL.")
		} else {
			ok("NOTIFIER=slack")
		}
	case "nats":
		if cfg.Notify.NATSURL == "" {
			fail("NOTIFIER=nats needs NATS_URL.")
		} else {
			ok("NOTIFIER=nats subject=" + cfg.Notify.NATSSubject)
		}
	case "log":
		warn("NOTIFIER=log; alerts only go to the log file.")
	default:
		fail("NOTIFIER " + cfg.Notify.Driver + " is not one of telegram, slack, nats, log.")
	}

	if !failed {
		ok("preflight passed")
	}
	return failed
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
