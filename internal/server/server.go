package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hoybrett99/StudyBuddy/internal/agent"
	"github.com/hoybrett99/StudyBuddy/internal/config"
	"github.com/hoybrett99/StudyBuddy/internal/db"
	"github.com/hoybrett99/StudyBuddy/internal/ingest"
	"github.com/hoybrett99/StudyBuddy/internal/rag"
	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

// Server is the StudyBuddy HTTP boundary. It owns no pipeline logic: every
// handler is a thin translation between HTTP and the ingest/rag/agent
// components.
type Server struct {
	cfg          *config.Config
	pipeline     *ingest.Pipeline
	answerer     *rag.Answerer
	orchestrator *agent.Orchestrator
	store        vectordb.Store
	registry     *db.DB
	router       chi.Router
	httpServer   *http.Server
}

// New creates a server with all dependencies. orchestrator may be nil, in
// which case the agent endpoint reports unavailability.
func New(cfg *config.Config, pipeline *ingest.Pipeline, answerer *rag.Answerer, orchestrator *agent.Orchestrator, store vectordb.Store, registry *db.DB) *Server {
	s := &Server{
		cfg:          cfg,
		pipeline:     pipeline,
		answerer:     answerer,
		orchestrator: orchestrator,
		store:        store,
		registry:     registry,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.cfg.RequestTimeoutSec) * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check: degraded when the registry is unreachable.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.registry != nil {
			if err := s.registry.Touch(r.Context()); err != nil {
				log.Printf("server: health check: %v", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/upload", s.handleUpload)
	r.Post("/ask", s.handleAsk)
	r.Post("/agent/ask", s.handleAgentAsk)
	r.Post("/preview", s.handlePreview)
	r.Get("/stats", s.handleStats)
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Delete("/{id}", s.handleDeleteDocument)
	})
	r.Get("/ws/chat", s.handleChat)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured host and port.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("studybuddy server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
