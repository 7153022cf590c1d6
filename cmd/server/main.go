/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the work-time ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (file, WORKLOG_* environment, defaults)
  3. Build the logger
  4. Initialize SQLite store
  5. Create the journal service and API handler
  6. Start the pair sweeper when enabled
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Configuration file (default: ./config/worklog.yaml or ./worklog.yaml)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides database
           Use ":memory:" for in-memory database
  -static  Frontend directory served for non-API paths (default: ./web/dist)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sweeper
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/worklog.db"

  # Run with in-memory database and a demo scenario via the API
  ./server -db=":memory:"

  # Enforce lunch bounds from the environment
  WORKLOG_ENFORCE_LUNCH_BOUNDS=true ./server

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/worklog/api"
	"github.com/warp/worklog/config"
	"github.com/warp/worklog/journal"
	"github.com/warp/worklog/logger"
	"github.com/warp/worklog/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worklog:", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "", "Configuration file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	staticDir := flag.String("static", "./web/dist", "Frontend directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Initialize store
	store, err := sqlite.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	svc := journal.NewService(store, store, journal.Options{
		Config:             cfg.Engine(),
		AutoLunch:          cfg.AutoLunchRule(),
		EnforceLunchBounds: cfg.EnforceLunchBounds,
		Logger:             log,
	})

	sweeper := api.NewPairSweeper(svc, log)
	sweeper.Enabled = cfg.Sweeper.Enabled
	sweeper.Interval = cfg.Sweeper.Interval
	sweeper.Start()
	defer sweeper.Stop()

	router := api.NewRouter(api.NewHandler(svc, store), api.RouterOptions{
		Logger:      logger.Named(log, "http"),
		CORSOrigins: cfg.Server.CORSOrigins,
		StaticDir:   *staticDir,
		SlowRequest: time.Second,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("database", cfg.Database).
			Bool("enforce_lunch_bounds", cfg.EnforceLunchBounds).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
