// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/insight/internal/api/handler/api"
	"github.com/newthinker/insight/internal/api/middleware"
	"github.com/newthinker/insight/internal/api/response"
	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for INSIGHT
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	app        *app.App
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// Dependencies holds the components the server routes to.
type Dependencies struct {
	App     *app.App
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.App == nil {
		return nil, fmt.Errorf("app is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
		app:    deps.App,
	}
	s.setupRoutes(cfg, deps)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	symbols := apihandler.NewSymbolHandler(deps.App)
	s.mux.Handle("GET /api/v1/symbols/{symbol}/quote", protect(symbols.Quote))
	s.mux.Handle("GET /api/v1/symbols/{symbol}/indicators", protect(symbols.Indicators))
	s.mux.Handle("GET /api/v1/symbols/{symbol}/prediction", protect(symbols.Prediction))
	s.mux.Handle("GET /api/v1/symbols/{symbol}/sentiment", protect(symbols.Sentiment))
	s.mux.Handle("GET /api/v1/symbols/{symbol}/overview", protect(symbols.Overview))

	watchlist := apihandler.NewWatchlistHandler(deps.App)
	s.mux.Handle("GET /api/v1/watchlist", protect(watchlist.List))
	s.mux.Handle("POST /api/v1/watchlist", protect(watchlist.Add))
	s.mux.Handle("DELETE /api/v1/watchlist/{symbol}", protect(watchlist.Remove))

	alerts := apihandler.NewAlertsHandler(deps.App)
	s.mux.Handle("GET /api/v1/alerts", protect(alerts.List))
	s.mux.Handle("GET /api/v1/alerts/{id}", protect(alerts.Get))

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"refresh": s.app.Stats(),
	})
}
