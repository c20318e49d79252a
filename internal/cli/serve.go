package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AnnaBNana/timetravel/internal/api"
	"github.com/AnnaBNana/timetravel/internal/config"
	"github.com/AnnaBNana/timetravel/internal/store"
)

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Config string
	Listen string
	Driver string
	DBPath string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the record service HTTP server",
		Long: `Start the record service HTTP server.

Configuration is read from the optional YAML config file; flags
override file values. The sqlite driver persists records to disk, the
memory driver keeps them in-process for demos and tests.

Example:
  timetravel serve --db ./records.db
  timetravel serve --config ./timetravel.yaml --listen :9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "storage driver: sqlite or memory (overrides config)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	// Configure logging based on verbose flag and config level
	logLevel := parseLogLevel(cfg.LogLevel)
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	log := slog.New(handler)
	slog.SetDefault(log)

	records, versioned, closeStore, err := openBackend(cfg, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage backend", err)
	}
	defer closeStore()

	gin.SetMode(gin.ReleaseMode)
	router := api.New(records, versioned, log).Router()
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr, "driver", cfg.Storage.Driver)
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server failed", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitFailure, "shutdown failed", err)
		}
		log.Info("server stopped")
	}

	return nil
}

// loadConfig resolves the effective config: defaults, then the config
// file if given, then flag overrides.
func loadConfig(opts *ServeOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if opts.Listen != "" {
		cfg.ListenAddr = opts.Listen
	}
	if opts.Driver != "" {
		cfg.Storage.Driver = opts.Driver
	}
	if opts.DBPath != "" {
		cfg.Storage.Path = opts.DBPath
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openBackend builds the record stores selected by the config.
func openBackend(cfg config.Config, log *slog.Logger) (api.RecordService, api.VersionedService, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Info("using in-memory storage, records will not persist")
		return store.NewMemoryRecords(), store.NewMemoryVersioned(), func() {}, nil
	default:
		log.Info("opening database", "path", cfg.Storage.Path)
		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		closeStore := func() {
			if err := db.Close(); err != nil {
				log.Error("error closing database", "error", err)
			}
		}
		return store.NewRecords(db), store.NewVersioned(db), closeStore, nil
	}
}

// parseLogLevel maps config log levels to slog levels.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
