// Package daemonrun wires the daemon process together: logging, the
// resource lifecycle manager, the IPC server, and shutdown handling.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"hopper/internal/buildinfo"
	"hopper/internal/config"
	"hopper/internal/debuglink"
	"hopper/internal/ipc"
	"hopper/internal/logging"
	"hopper/internal/notifications"
	"hopper/internal/resources"
	"hopper/internal/update"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

const notifyTimeout = 10 * time.Second

// Run starts the hopper daemon runtime loop. It returns after the resource
// set is torn down, either because a signal arrived, an IPC shutdown was
// requested, or bring-up failed.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	runCtx, stopRun := context.WithCancel(signalCtx)
	defer stopRun()

	sessionID := uuid.NewString()
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("hopperd-%s.log", runID))
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:            opts.LogLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	// The recorder keeps the last log line for failure diagnostics; the
	// mirror handler stays silent until the debug-link step connects it.
	recorder := logging.NewRecorder()
	mirror := debuglink.New(cfg, logger)
	logger = logging.TeeLogger(logger, recorder, mirror.Handler(slog.LevelDebug))
	logger = logger.With(logging.String(logging.FieldSessionID, sessionID))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update hopperd.log link: %v\n", err)
	}
	if err := writePIDFile(cfg.Paths.PIDFile); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(cfg.Paths.PIDFile)

	logger.Info("hopper daemon starting",
		logging.String(logging.FieldEventType, "daemon_starting"),
		logging.String("version", buildinfo.Version),
		logging.String("log_path", logPath))

	notifier := notifications.NewService(cfg)
	manager := resources.New(cfg, logger, recorder, mirror, sessionID)
	defer manager.Close()

	if err := manager.Initialize(runCtx, os.Args); err != nil {
		renderStartupFailure(logger, err)
		notifyCtx, notifyCancel := context.WithTimeout(context.Background(), notifyTimeout)
		if notifyErr := notifier.NotifyStartupFailure(notifyCtx, err); notifyErr != nil {
			logger.Warn("startup failure notification not delivered", logging.Error(notifyErr))
		}
		notifyCancel()
		return err
	}

	backend := newBackend(cfg, manager, notifier, logPath, stopRun)
	ipcServer, err := ipc.NewServer(runCtx, cfg.Paths.SocketPath, backend, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if cfg.Updates.Enabled {
		go checkForUpdate(runCtx, cfg, manager, logger, notifier)
	}

	<-runCtx.Done()
	logger.Info("hopper daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_stopping"))
	return nil
}

// checkForUpdate asks the release endpoint once per daemon session and
// surfaces a newer version through the log and an optional push.
func checkForUpdate(ctx context.Context, cfg *config.Config, manager *resources.Manager, logger *slog.Logger, notifier notifications.Service) {
	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Updates.TimeoutSeconds)*time.Second)
	defer cancel()

	release, err := update.Fetch(fetchCtx, manager.NetClient(), cfg.Updates.Endpoint)
	if err != nil {
		logger.Debug("update check failed", logging.Error(err))
		return
	}
	current, err := update.ParseVersion(buildinfo.Version)
	if err != nil {
		logger.Debug("running version unparseable", logging.Error(err))
		return
	}
	latest, err := update.ParseVersion(release.Tag)
	if err != nil {
		logger.Debug("release tag unparseable",
			logging.String("tag", release.Tag),
			logging.Error(err))
		return
	}
	if !latest.NewerThan(current) {
		return
	}

	logger.Info("newer release available",
		logging.String(logging.FieldEventType, "update_available"),
		logging.String("tag", release.Tag),
		logging.String("asset", release.AssetName))
	if err := notifier.NotifyUpdateAvailable(ctx, release.Tag); err != nil {
		logger.Warn("update notification not delivered", logging.Error(err))
	}
}

// renderStartupFailure shows the failure where the operator is looking: a
// boxed stderr message on an interactive terminal, a structured log line
// otherwise.
func renderStartupFailure(logger *slog.Logger, err error) {
	logging.ErrorWithContext(logger, "daemon startup failed", "daemon_start_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check configuration, key material, and reader connectivity"),
		logging.String(logging.FieldImpact, "daemon is not running"))

	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return
	}
	message := "startup failed: " + err.Error()
	border := strings.Repeat("─", len([]rune(message))+2)
	fmt.Fprintf(os.Stderr, "\n┌%s┐\n│ %s │\n└%s┘\n", border, message, border)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "hopperd.log")
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

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
