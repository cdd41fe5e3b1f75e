package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/nighttime/internal/config"
	"github.com/goodtune/nighttime/internal/control"
	"github.com/goodtune/nighttime/internal/display"
	"github.com/goodtune/nighttime/internal/metrics"
	"github.com/goodtune/nighttime/internal/nightmode"
	"github.com/goodtune/nighttime/internal/storage"
	"github.com/goodtune/nighttime/internal/storage/bolt"
	"github.com/goodtune/nighttime/internal/storage/redis"
	"github.com/goodtune/nighttime/internal/storage/sqlite"
	"github.com/goodtune/nighttime/internal/systemd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the night mode scheduler",
	Long:  `Run the scheduler in the foreground with the control API and metrics endpoints.`,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	// A fresh install gets the defaults written out to edit
	written, err := config.WriteDefault(configPath)
	if err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Debug = debugMode

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Bool("debug", debugMode).
		Msg("Starting nighttime")
	if written {
		logger.Info().Str("path", configPath).Msg("Wrote default configuration")
	}

	window, err := cfg.Window()
	if err != nil {
		return err
	}
	poll, err := cfg.PollDuration()
	if err != nil {
		return err
	}
	timeout, err := cfg.CommandTimeout()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close storage")
			}
		}()

		deleted, err := storage.Prune(ctx, store, cfg.HistoryRetention(), time.Now())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to prune transition history")
		} else if deleted > 0 {
			logger.Info().Int("deleted", deleted).Msg("Pruned old transitions")
		}
	}

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	// Initialize the display port
	port, err := display.Open(display.Options{
		Driver:         cfg.Display.Driver,
		StatusCommand:  cfg.Display.StatusCommand,
		EnableCommand:  cfg.Display.EnableCommand,
		DisableCommand: cfg.Display.DisableCommand,
		CommandTimeout: timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}

	// Initialize the scheduler
	scheduler := nightmode.New(window, port, nightmode.Config{
		PollInterval:  poll,
		RestoreOnExit: cfg.RestoreOnExit,
	}, logger)
	if store != nil {
		scheduler.SetStore(store)
	}
	var watchdog *systemd.Watchdog
	if interval := systemd.WatchdogInterval(); interval > 0 {
		// A tick may block on the display for the command timeout, and the
		// exit restore gets ShutdownTimeout after the last tick.
		staleAfter := 2*poll + timeout + nightmode.ShutdownTimeout
		logger.Info().
			Dur("interval", interval).
			Dur("stale_after", staleAfter).
			Msg("systemd watchdog enabled")
		watchdog = systemd.NewWatchdog(interval, staleAfter, logger)
		scheduler.SetHooks(nightmode.Hooks{
			AfterTick: func(_ nightmode.TickResult, _ error) {
				watchdog.Beat()
			},
		})
	}

	// Start the control API and metrics server
	var server *metrics.Server
	if cfg.Control.Enabled {
		server = metrics.NewServer(cfg.Control.Addr(), logger)
		opts := control.Options{
			Title: cfg.Title,
			Debug: debugMode,
		}
		if store != nil {
			opts.History = store.Transitions()
		}
		server.Handle("/api/", control.NewHandler(scheduler, opts, logger))

		ln, err := systemd.ControlListener()
		if err != nil {
			return fmt.Errorf("failed to get systemd listeners: %w", err)
		}
		if ln != nil {
			logger.Info().Msg("Running with systemd socket activation")
			server.SetListener(ln)
		}

		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start control server: %w", err)
		}
	}

	config.Watch(configPath, logger, nil)

	// The scheduler reads the display before we report ready
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else if systemd.IsSystemdService() {
		logger.Info().Msg("Notified systemd that service is ready")
	}

	// The watchdog outlives ctx so pings continue through the exit restore
	watchdogCtx, stopWatchdog := context.WithCancel(context.Background())
	defer stopWatchdog()
	if watchdog != nil {
		go watchdog.Run(watchdogCtx)
	}

	// Run blocks until a signal cancels ctx, then restores the display
	runErr := scheduler.Run(ctx)
	stopWatchdog()

	logger.Info().Msg("Shutdown signal received, stopping")

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if server != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("Error stopping control server")
		}
	}

	if runErr != nil {
		return fmt.Errorf("failed to restore display: %w", runErr)
	}

	logger.Info().Msg("nighttime stopped")

	return nil
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "", "bolt":
		return bolt.Open(cfg.Path)
	case "sqlite":
		return sqlite.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
