// Package server provides the HTTP server and routing for Mission Control.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/aristath/mission-control/internal/config"
	"github.com/aristath/mission-control/internal/di"
	"github.com/aristath/mission-control/internal/livequery"
	"github.com/aristath/mission-control/internal/metrics"
	activitieshandlers "github.com/aristath/mission-control/internal/modules/activities/handlers"
	agentshandlers "github.com/aristath/mission-control/internal/modules/agents/handlers"
	cronhandlers "github.com/aristath/mission-control/internal/modules/cron/handlers"
	healthhandlers "github.com/aristath/mission-control/internal/modules/health/handlers"
	mealshandlers "github.com/aristath/mission-control/internal/modules/meals/handlers"
	overviewhandlers "github.com/aristath/mission-control/internal/modules/overview/handlers"
	progresshandlers "github.com/aristath/mission-control/internal/modules/progress/handlers"
	reportshandlers "github.com/aristath/mission-control/internal/modules/reports/handlers"
	tradinghandlers "github.com/aristath/mission-control/internal/modules/trading/handlers"
	"github.com/aristath/mission-control/pkg/embedded"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	assets         fs.FS
	baseCtx        context.Context
	cancelBase     context.CancelFunc
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: c,
		assets:    embedded.Static(),
		systemHandlers: NewSystemHandlers(
			c.DB,
			cfg.Config.DataDir,
			c.EventBus,
			c.LiveHub,
			c.BackupService,
			c.Scheduler,
			c.Jobs.ByName(),
			cfg.Log,
		),
	}

	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	// No read or write timeout: the event stream and live queries hold connections open
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return s.baseCtx
		},
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Prometheus request metrics
	s.router.Use(metrics.Middleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	c := s.container

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	// Progressive web app assets
	s.router.Get("/manifest.json", s.handleAsset("manifest.json", "application/manifest+json"))
	s.router.Get("/sw.js", s.handleAsset("sw.js", "application/javascript"))

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived streams are exempt from the request timeout
		r.Get("/events/stream", NewEventsStreamHandler(c.EventBus, s.log).ServeHTTP)
		r.Get("/live", livequery.NewHandler(c.LiveHub, s.log).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			healthhandlers.NewHandler(c.HealthService, s.log).RegisterRoutes(r)
			activitieshandlers.NewHandler(c.ActivitiesRepo, s.log).RegisterRoutes(r)
			progresshandlers.NewHandler(c.ProgressService, s.log).RegisterRoutes(r)
			tradinghandlers.NewHandler(c.TradingService, s.log).RegisterRoutes(r)
			cronhandlers.NewHandler(c.CronService, s.log).RegisterRoutes(r)
			mealshandlers.NewHandler(c.MealsService, s.log).RegisterRoutes(r)
			agentshandlers.NewHandler(c.AgentsRepo, s.log).RegisterRoutes(r)
			reportshandlers.NewHandler(c.ReportsService, s.log).RegisterRoutes(r)
			overviewhandlers.NewHandler(c.OverviewService, s.log).RegisterRoutes(r)

			s.systemHandlers.RegisterRoutes(r)
		})
	})
}

// handleAsset serves one embedded static file
func (s *Server) handleAsset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(s.assets, name)
		if err != nil {
			s.log.Error().Err(err).Str("asset", name).Msg("Failed to read embedded asset")
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", contentType)
		if name == "sw.js" {
			// Browsers re-check the worker on every navigation
			w.Header().Set("Cache-Control", "no-cache")
		}
		if _, err := w.Write(data); err != nil {
			s.log.Error().Err(err).Str("asset", name).Msg("Failed to write asset response")
		}
	}
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open streams and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.cancelBase()
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
