/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the interest engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Build the zap logger
  3. Initialize SQLite store
  4. Seed preset rates (optional) and load the rate timeline
  5. Configure HTTP router, start the rate refresher
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port        HTTP server port (default: $PORT or 8080)
  -db          SQLite database path (default: $DB_PATH or interest.db)
               Use ":memory:" for in-memory database
  -seed        Load the preset rate tables into an empty store (default: true)
  -max-events  Events accepted per calculation (default: $MAX_EVENTS or 40)
  -log-level   debug, info, warn, error (default: $LOG_LEVEL or info)
  -refresh     Rate reload interval, 0 disables (default: 1h)

ENVIRONMENT:
  PORT, DB_PATH, MAX_EVENTS, LOG_LEVEL provide flag defaults. A .env file in
  the working directory is loaded first when present.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the refresher and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/interest.db"

  # Run with in-memory database and debug logging
  ./server -db=":memory:" -log-level=debug

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/interest-engine/api"
	"github.com/warp/interest-engine/store/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Missing .env is fine; real environment wins over the file
	_ = godotenv.Load()

	// Flags
	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("DB_PATH", "interest.db"), "SQLite database path")
	seed := flag.Bool("seed", true, "Seed preset rate tables into an empty store")
	maxEvents := flag.Int("max-events", envInt("MAX_EVENTS", api.DefaultMaxEvents), "Maximum events per calculation")
	logLevel := flag.String("log-level", envString("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	refresh := flag.Duration("refresh", time.Hour, "Rate reload interval (0 disables)")
	flag.Parse()

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.String("db", *dbPath), zap.Error(err))
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logger)
	handler.MaxEvents = *maxEvents

	ctx := context.Background()
	if *seed {
		if err := handler.SeedDefaultRates(ctx); err != nil {
			logger.Fatal("failed to seed rate tables", zap.Error(err))
		}
	} else if err := handler.LoadRates(ctx); err != nil {
		logger.Warn("failed to load rate tables", zap.Error(err))
	}

	refresher := api.NewRateRefresher(handler, logger)
	refresher.Interval = *refresh
	refresher.Enabled = *refresh > 0
	refresher.Start()
	defer refresher.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath),
			zap.Int("max_events", *maxEvents),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
