package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"autoname/internal/config"
	"autoname/internal/daemon"
	"autoname/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the autoname daemon and blocks until SIGINT, SIGTERM, or
// cancellation of cmdCtx, then shuts down cooperatively.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logOpts := logging.OptionsFromConfig(cfg)
	if opts.LogLevel != "" {
		logOpts.Level = opts.LogLevel
	}
	logOpts.Development = opts.Development
	logger, err := logging.New(logOpts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	sessionID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldSessionID, sessionID))

	logConfigSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, "autoname.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	parts, err := daemon.BuildComponents(cfg, logger, daemon.BuildOptions{})
	if err != nil {
		logger.Error("startup failed", logging.Error(err),
			logging.String(logging.FieldEventType, "startup_failed"),
			logging.String(logging.FieldErrorHint, "check credentials and state directory access"),
		)
		return err
	}

	d, err := daemon.New(cfg, logger, parts)
	if err != nil {
		if parts.History != nil {
			_ = parts.History.Close()
		}
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check directory permissions and that no other instance is running"),
		)
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("autoname daemon shutting down")
	d.Stop()

	stats := d.Status().Worker
	logger.Info("session summary",
		logging.String(logging.FieldEventType, "session_summary"),
		logging.Int("renamed", stats.Renamed),
		logging.Int("skipped", stats.Skipped),
		logging.Int("failed", stats.Failed),
	)
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("input_dir", cfg.Paths.InputDir),
		logging.String("output_dir", cfg.Paths.OutputDir),
		logging.String("state_dir", cfg.Paths.StateDir),
		logging.Any("extensions", cfg.Intake.Extensions),
		logging.Int("queue_capacity", cfg.Intake.QueueCapacity),
		logging.Bool("scan_existing", cfg.Intake.ScanExisting),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.String("sypht_base_url", cfg.Sypht.BaseURL),
		logging.String("abr_base_url", cfg.ABR.BaseURL),
		logging.Any("abr_requests_per_second", cfg.ABR.RequestsPerSecond),
	)
}
