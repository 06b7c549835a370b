package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"dserver/internal/channel"
	"dserver/internal/config"
	"dserver/internal/logging"
	"dserver/internal/server"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Detached suppresses console output; the run log file is the only sink.
	Detached bool
}

// Run serves listener until a STOP request, SIGINT, or SIGTERM. It owns the
// listener from the moment it is called.
func Run(cmdCtx context.Context, cfg *config.Config, listener *channel.Channel, opts Options) error {
	if listener == nil {
		return fmt.Errorf("listener is required")
	}
	if cfg == nil {
		_ = listener.Close()
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		_ = listener.Close()
		return err
	}

	runID := uuid.NewString()
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("dserver-%s.log", runID))
	logger, err := newRunLogger(cfg, opts, runID, logPath)
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.CurrentLogPath(), logPath); err != nil {
		logging.WarnWithContext(logger, "unable to update dserver.log link", "log_pointer_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "dserver.log may point at an older run"),
		)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "dserver-*.log", Keep: []string{logPath}},
	)

	pidFile, err := acquirePIDFile(cfg.PIDPath(), cfg.LockPath())
	if err != nil {
		_ = listener.Close()
		logging.ErrorWithContext(logger, "daemon lock unavailable", "daemon_lock_failed",
			logging.Error(err),
			logging.String("lock", cfg.LockPath()),
			logging.String(logging.FieldErrorHint, "stop the running daemon with: dserver -c STOP"),
		)
		return err
	}
	defer func() {
		if err := pidFile.Release(); err != nil {
			logging.WarnWithContext(logger, "pid file cleanup failed", "pid_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a stale pid file may remain"),
			)
		}
	}()

	srv, err := server.New(listener, server.Options{PollTimeout: cfg.PollInterval()}, logger)
	if err != nil {
		_ = listener.Close()
		return err
	}

	logger.Info("dserver daemon started",
		logging.Event("daemon_started"),
		logging.Socket(listener.Addr()),
		logging.PID(os.Getpid()),
		logging.String("log_path", logPath),
		logging.Bool("detached", opts.Detached),
	)

	serveErr := srv.Serve(signalCtx)
	switch {
	case serveErr != nil:
		return fmt.Errorf("serve %s: %w", listener.Addr(), serveErr)
	case signalCtx.Err() != nil:
		logger.Info("dserver daemon shutting down on cancellation", logging.Event("daemon_signalled"))
	default:
		logger.Info("dserver daemon shutting down", logging.Event("daemon_stopped"))
	}
	return nil
}

// newRunLogger writes JSON records to the run log file. In the foreground the
// configured console format is teed onto stdout.
func newRunLogger(cfg *config.Config, opts Options, runID, logPath string) (*slog.Logger, error) {
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}

	fileLogger, err := logging.New(logging.Options{
		Level:       level,
		Format:      "json",
		OutputPaths: []string{logPath},
		Development: opts.Development,
		RunID:       runID,
	})
	if err != nil {
		return nil, err
	}
	if opts.Detached {
		return fileLogger, nil
	}

	console, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
		Development: opts.Development,
		RunID:       runID,
	})
	if err != nil {
		return nil, err
	}
	return logging.TeeLogger(console, fileLogger.Handler()), nil
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
