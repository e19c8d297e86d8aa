package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kweidner/metasynth/internal/config"
	"github.com/kweidner/metasynth/internal/metrics"
	"github.com/kweidner/metasynth/internal/pipeline"
)

// Server is the HTTP API for the segmentation service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	profile      *config.Profile
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, profile *config.Profile, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		profile:      profile,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/segment", s.handleSegment)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/chunks", s.handleJobChunks)
		r.Get("/api/jobs/{jobID}/report", s.handleJobReport)
		r.Get("/api/profile", s.handleProfile)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ready",
		"queue_depth": s.orchestrator.QueueDepth(),
		"jobs":        s.orchestrator.JobCount(),
	})
}
