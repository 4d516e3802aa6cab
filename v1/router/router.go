package router

import (
	"net/http"

	"github.com/ddries/radiobot-rbpwh/pkg/monitoring"
	"github.com/ddries/radiobot-rbpwh/v1/handlers"
	"github.com/ddries/radiobot-rbpwh/v1/middleware"
	"github.com/ddries/radiobot-rbpwh/v1/utils"
)

// Router handles all bridge route registration
type Router struct {
	bridgeHandler *handlers.BridgeHandler
}

// NewRouter creates a new router with all dependencies
func NewRouter(bridgeHandler *handlers.BridgeHandler) *Router {
	return &Router{
		bridgeHandler: bridgeHandler,
	}
}

// RegisterRoutes registers all routes to the provided mux
func (r *Router) RegisterRoutes(mux *http.ServeMux) {
	// Liveness probe; registered exact so the mux catch-all does not
	// swallow unknown paths silently
	mux.Handle("/{$}", r.wrap(http.HandlerFunc(r.bridgeHandler.Liveness)))

	mux.Handle("/health", r.wrap(http.HandlerFunc(r.bridgeHandler.HealthCheck)))

	// Webhook ingestion: the handler reads the raw body itself so the
	// signature is computed over the exact bytes received
	mux.Handle("/bridge", r.wrap(http.HandlerFunc(r.bridgeHandler.IngestWebhook)))

	// Resolution endpoints
	mux.Handle("/fetch_pledge_by_id", r.wrap(http.HandlerFunc(r.bridgeHandler.FetchPledgeByID)))
	mux.Handle("/fetch_pledge_by_discord_id", r.wrap(http.HandlerFunc(r.bridgeHandler.FetchPledgeByDiscordID)))

	// Prometheus exposition
	mux.Handle("/metrics", monitoring.Handler())
}

// wrap applies the standard middleware chain to a handler
func (r *Router) wrap(handler http.Handler) http.Handler {
	return utils.PanicRecoveryMiddleware(
		middleware.RequestLoggerMiddleware(
			monitoring.HTTPMetricsMiddleware(handler)))
}
