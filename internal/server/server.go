// Package server exposes the extraction pipeline and park store over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/parkatlas/parkatlas/internal/config"
	"github.com/parkatlas/parkatlas/internal/extract"
	"github.com/parkatlas/parkatlas/internal/store"
)

// Extractor is the pipeline capability the server depends on. Tests
// substitute a scripted fake.
type Extractor interface {
	Run(ctx context.Context, parkName, wikiURL string) (*extract.RunResult, error)
	BackfillField(ctx context.Context, parkName, field string) (*extract.BackfillResult, error)
}

// Server wires the HTTP routes to the pipeline and store.
type Server struct {
	pipeline Extractor
	store    store.Store
	cfg      *config.Config
	validate *validator.Validate
}

// New creates a Server.
func New(pipeline Extractor, st store.Store, cfg *config.Config) *Server {
	return &Server{
		pipeline: pipeline,
		store:    st,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/parks", func(r chi.Router) {
		r.Get("/", s.handleListParks)
		r.Get("/count", s.handleCountParks)
		r.Get("/{id}", s.handleGetPark)
		r.Delete("/{id}", s.handleDeletePark)
		r.Post("/extract", s.handleExtract)
		r.Post("/extract/batch", s.handleExtractBatch)
		r.Post("/backfill", s.handleBackfill)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs each request with structured zap fields.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
