// Package server provides the HTTP server and routing for Ballast.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/config"
	"github.com/aristath/ballast/internal/database"
	"github.com/aristath/ballast/internal/di"
	calendarhandlers "github.com/aristath/ballast/internal/modules/calendar/handlers"
	enginehandlers "github.com/aristath/ballast/internal/modules/engine/handlers"
	fundinghandlers "github.com/aristath/ballast/internal/modules/funding/handlers"
	indexhandlers "github.com/aristath/ballast/internal/modules/indexes/handlers"
	reporthandlers "github.com/aristath/ballast/internal/modules/reports/handlers"
	scenariohandlers "github.com/aristath/ballast/internal/modules/scenarios/handlers"
	schedulehandlers "github.com/aristath/ballast/internal/modules/schedules/handlers"
	snapshothandlers "github.com/aristath/ballast/internal/modules/snapshots/handlers"
	universehandlers "github.com/aristath/ballast/internal/modules/universe/handlers"
	"github.com/aristath/ballast/internal/modules/volatility"
	volatilityhandlers "github.com/aristath/ballast/internal/modules/volatility/handlers"
	"github.com/aristath/ballast/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	databases := map[string]*database.DB{
		"history":   cfg.Container.HistoryDB,
		"indexes":   cfg.Container.IndexesDB,
		"snapshots": cfg.Container.SnapshotsDB,
	}

	// The feed client is nil when the feed is disabled; keep the
	// interface nil too so the status handler can tell.
	var feed RatesFeed
	if cfg.Container.FeedClient != nil {
		feed = cfg.Container.FeedClient
	}

	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.Config.ReportsDir,
		databases,
		feed,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs registers the scheduler and job instances for status reporting
// and manual triggering via the API. Called after jobs are registered in
// main.go.
func (s *Server) SetJobs(sched *scheduler.Scheduler, valuation, backup, maintenance scheduler.Job) {
	s.systemHandlers.SetJobs(sched, valuation, backup, maintenance)
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

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
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
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Event stream (SSE)
		eventsStreamHandler := NewEventsStreamHandler(s.container.EventBus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		// System monitoring and manual job triggers
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Get("/feed", s.systemHandlers.HandleFeedStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			r.Get("/disk", s.systemHandlers.HandleDiskUsage)

			r.Post("/jobs/valuation", s.systemHandlers.HandleTriggerValuation)
			r.Post("/jobs/backup", s.systemHandlers.HandleTriggerBackup)
			r.Post("/jobs/maintenance", s.systemHandlers.HandleTriggerMaintenance)
		})

		// Return history module
		universeHandler := universehandlers.NewHandler(s.container.UniverseRepo, s.container.CalendarRepo, s.log)
		universeHandler.RegisterRoutes(r)

		// Holiday calendars module
		calendarHandler := calendarhandlers.NewHandler(s.container.CalendarRepo, s.log)
		calendarHandler.RegisterRoutes(r)

		// Engine module
		engineHandler := enginehandlers.NewHandler(s.container.ValuationService, s.container.SnapshotsRepo, s.log)
		engineHandler.RegisterRoutes(r)

		// Index definitions module
		indexHandler := indexhandlers.NewHandler(s.container.IndexRepo, s.log)
		indexHandler.RegisterRoutes(r)

		// Snapshots module
		snapshotHandler := snapshothandlers.NewHandler(s.container.SnapshotsRepo, s.log)
		snapshotHandler.RegisterRoutes(r)

		// Reports module
		reportHandler := reporthandlers.NewHandler(s.container.ReportWriter, s.log)
		reportHandler.RegisterRoutes(r)

		// Funding rates module
		fundingHandler := fundinghandlers.NewHandler(s.container.FundingRepo, s.log)
		fundingHandler.RegisterRoutes(r)

		// Scenario detection module
		scenarioHandler := scenariohandlers.NewHandler(s.container.ScenarioService, s.log)
		scenarioHandler.RegisterRoutes(r)

		// Volatility diagnostics module
		ewmaParams := volatility.DefaultEWMAParams()
		ewmaParams.LambdaShort = s.cfg.EWMALambdaShort
		ewmaParams.LambdaLong = s.cfg.EWMALambdaLong
		volatilityHandler := volatilityhandlers.NewHandler(volatilityhandlers.Defaults{
			EWMA:        ewmaParams,
			MaxLeverage: s.cfg.MaxLeverage,
		}, s.log)
		volatilityHandler.RegisterRoutes(r)

		// Schedule validation module
		scheduleHandler := schedulehandlers.NewHandler(s.log)
		scheduleHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
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
