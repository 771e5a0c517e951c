// Package api exposes the ranked trends and admin controls over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/scheduler"
	"github.com/leeaandrob/trendsignals/internal/storage"
	"github.com/leeaandrob/trendsignals/internal/trend"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context, seed string) (*trend.Result, error)
}

// CacheReporter exposes generation cache counters.
type CacheReporter interface {
	Stats() llm.CacheStats
}

// Deps are the collaborators served by the API. Runner, Scheduler and Caches
// are optional.
type Deps struct {
	Store      storage.TrendStore
	Runner     Runner
	Scheduler  *scheduler.Scheduler
	Caches     []CacheReporter
	RunTimeout time.Duration
}

// Server represents the API server.
type Server struct {
	router     *chi.Mux
	handlers   *Handlers
	runner     Runner
	scheduler  *scheduler.Scheduler
	caches     []CacheReporter
	runTimeout time.Duration
	addr       string
	server     *http.Server
}

// NewServer creates a new API server.
func NewServer(deps Deps, addr string) *Server {
	handlers := NewHandlers(deps.Store)
	if deps.RunTimeout == 0 {
		deps.RunTimeout = 5 * time.Minute
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv := &Server{
		router:     r,
		handlers:   handlers,
		runner:     deps.Runner,
		scheduler:  deps.Scheduler,
		caches:     deps.Caches,
		runTimeout: deps.RunTimeout,
		addr:       addr,
	}

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/health", handlers.HealthCheck)

			r.Route("/trends", func(r chi.Router) {
				r.Get("/", handlers.GetActiveTrends)
				r.Get("/history/{keyword}", handlers.GetKeywordHistory)
				r.Get("/{rank}", handlers.GetTrendByRank)
			})
		})

		// Admin routes (no auth for development)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/run", srv.AdminRunPipeline)
			r.Get("/jobs", srv.AdminGetJobs)
			r.Post("/jobs/{name}/run", srv.AdminRunJob)
			r.Get("/cache", srv.AdminCacheStats)
		})
	})

	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.runTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ============================================================================
// ADMIN HANDLERS
// ============================================================================

// AdminRunPipeline runs the pipeline synchronously and returns its result.
func (s *Server) AdminRunPipeline(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		respondError(w, http.StatusServiceUnavailable, "Pipeline not available")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	res, err := s.runner.Run(ctx, r.URL.Query().Get("seed"))
	if err != nil {
		log.Error().Err(err).Msg("Manual pipeline run failed")
		respondError(w, http.StatusInternalServerError, "Pipeline run failed")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// AdminGetJobs returns the status of all scheduled jobs.
func (s *Server) AdminGetJobs(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not available")
		return
	}

	jobs := s.scheduler.GetJobStatus()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// AdminRunJob runs a specific job by name.
func (s *Server) AdminRunJob(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not available")
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "Job name is required")
		return
	}

	if err := s.scheduler.RunJobNow(name); err != nil {
		if errors.Is(err, scheduler.ErrJobRunning) {
			respondError(w, http.StatusConflict, "Job already running")
			return
		}
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Job triggered: " + name,
	})
}

// AdminCacheStats returns hit/miss counters of the generation caches.
func (s *Server) AdminCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := make([]llm.CacheStats, 0, len(s.caches))
	for _, c := range s.caches {
		stats = append(stats, c.Stats())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"caches": stats,
		"count":  len(stats),
	})
}
