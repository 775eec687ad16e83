package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/condlookup/internal/config"
	"github.com/dgallion1/condlookup/internal/generate"
	"github.com/dgallion1/condlookup/internal/lookup"
	"github.com/dgallion1/condlookup/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for condlookup.
type Server struct {
	router    chi.Router
	lookups   *lookup.Service
	generator generate.Generator
	stats     *generate.Stats
	sessions  *session.Signer
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(lookups *lookup.Service, gen generate.Generator, stats *generate.Stats, sessions *session.Signer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		lookups:   lookups,
		generator: gen,
		stats:     stats,
		sessions:  sessions,
		log:       log,
		cfg:       cfg,
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

	r.Get("/health", s.handleHealth)

	// Browser endpoints, identified by the signed session cookie.
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(s.sessions))

		r.Get("/", s.handlePage)
		r.With(RequireSession).Get("/lookup/{lookupID}/export.docx", s.handleExport)
	})

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		r.Use(JSONBodyLimit(maxJSONBody))

		r.Post("/api/session", s.handleSession)
		r.Get("/api/access", s.handleAccess)

		r.Post("/api/lookup", s.handleLookup)
		r.Get("/api/lookup/{lookupID}", s.handleGetLookup)
		r.Get("/api/lookup/{lookupID}/export.docx", s.handleExport)

		r.Post("/api/summary", s.handleSummary)
		r.Post("/api/details", s.handleDetails)
		r.Post("/api/sections", s.handleSections)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
