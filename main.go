package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ddries/radiobot-rbpwh/internal/config"
	"github.com/ddries/radiobot-rbpwh/pkg/monitoring"
	"github.com/ddries/radiobot-rbpwh/v1/database"
	"github.com/ddries/radiobot-rbpwh/v1/handlers"
	"github.com/ddries/radiobot-rbpwh/v1/patreon"
	"github.com/ddries/radiobot-rbpwh/v1/router"
	"github.com/ddries/radiobot-rbpwh/v1/services"
	"github.com/joho/godotenv"
)

const serviceName = "rbpwh"

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(serviceName)
	if err != nil {
		slog.Error("Invalid configuration, aborting start up", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging)

	slog.Info("Starting pledge bridge initialization")

	// The store must be reachable before the HTTP surface is exposed
	dbConfig := database.NewDatabaseConfig(&cfg.DBConfigs)
	gormDB, err := database.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database, aborting start up", "error", err)
		os.Exit(1)
	}

	shutdownMetrics, err := monitoring.Setup(context.Background(), monitoring.Config{
		ServiceName: serviceName,
	})
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	patreonClient := patreon.NewClient(cfg.Patreon.AccessToken)

	membershipService, err := services.NewMembershipService(
		gormDB, patreonClient, cfg.Patreon.WebhookSecret, cfg.Resolver.ScanLimit)
	if err != nil {
		slog.Error("Failed to initialize membership service", "error", err)
		os.Exit(1)
	}

	bridgeHandler := handlers.NewBridgeHandler(membershipService)

	mux := http.NewServeMux()
	router.NewRouter(bridgeHandler).RegisterRoutes(mux)

	addr := cfg.Service.Host + ":" + cfg.Service.Port
	server := newHTTPServer(addr, mux, cfg.Service.Timeout)

	go func() {
		slog.Info("Pledge bridge starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down pledge bridge...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Let any in-flight reconciliation write-backs settle before exit
	membershipService.WaitForWriteBacks()

	if err := shutdownMetrics(ctx); err != nil {
		slog.Error("Failed to shutdown metrics", "error", err)
	}

	slog.Info("Pledge bridge stopped")
}

// newHTTPServer builds the server with the configured request timeout
// applied to both read and write
func newHTTPServer(addr string, handler http.Handler, timeout time.Duration) *http.Server {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  60 * time.Second,
	}
}

// setupLogger configures the default slog logger per environment
func setupLogger(cfg config.LoggingConfig) {
	level := parseLogLevel(cfg.Level)

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}

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
