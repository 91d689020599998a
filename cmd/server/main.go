/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the fuel and cost analytics server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file, environment, flags)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Create metrics, API handler and inspection scheduler
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMANDS:
  fuel-engine [serve]   Run the HTTP server (default)
  fuel-engine version   Print the build version

FLAGS:
  --config  YAML config file (optional)
  --port    HTTP server port, overrides server.port
  --db      SQLite database path, overrides database.path
            Use ":memory:" for in-memory database

ENVIRONMENT:
  Every config key can be set as FUELENGINE_<SECTION>_<KEY>, for example
  FUELENGINE_ANALYTICS_TIMEZONE=Europe/Madrid.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for a running sweep)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/fuel-engine/api"
	"github.com/warp/fuel-engine/config"
	"github.com/warp/fuel-engine/logging"
	"github.com/warp/fuel-engine/store/sqlite"
)

// Version is injected at build time via -ldflags "-X main.Version=...".
var Version = "dev"

const shutdownTimeout = 30 * time.Second

type serveOptions struct {
	configPath string
	port       int
	dbPath     string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &serveOptions{}

	root := &cobra.Command{
		Use:           "fuel-engine",
		Short:         "Fuel consumption and vehicle cost analytics server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	pf.IntVar(&opts.port, "port", 8080, "HTTP server port")
	pf.StringVar(&opts.dbPath, "db", "fuel.db", "SQLite database path")

	root.AddCommand(serveCmd, &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	})
	return root
}

// loadConfig applies flags only when set explicitly, so the environment and
// the config file keep precedence over flag defaults.
func loadConfig(cmd *cobra.Command, opts *serveOptions) (*config.Config, error) {
	overrides := map[string]any{}
	if cmd.Flags().Changed("port") {
		overrides["server.port"] = opts.port
	}
	if cmd.Flags().Changed("db") {
		overrides["database.path"] = opts.dbPath
	}

	loadOpts := []config.Option{config.WithOverrides(overrides)}
	if opts.configPath != "" {
		loadOpts = append(loadOpts, config.WithConfigPath(opts.configPath))
	}
	return config.Load(loadOpts...)
}

func serve(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	metrics := api.NewMetrics()
	handler := api.NewHandler(store, logger, metrics, cfg.Analytics)

	scheduler := api.NewInspectionScheduler(store, logger, metrics, cfg.Scheduler, cfg.Analytics.Location())
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, metrics, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.Database.Path),
			zap.String("timezone", cfg.Analytics.Timezone),
			zap.String("version", Version),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
