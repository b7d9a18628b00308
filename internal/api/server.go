package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"popchat/internal/backend"
	"popchat/internal/cache"
	"popchat/internal/chart"
	"popchat/internal/config"
	"popchat/internal/session"
)

// Querier abstracts the upstream answer backend.
type Querier interface {
	Query(ctx context.Context, sessionID, query string) (*backend.Answer, error)
}

// Server is the popchat HTTP API server.
type Server struct {
	router    chi.Router
	store     *session.Store
	backend   Querier
	extractor *chart.Extractor
	cache     *cache.Store
	stats     *backend.Stats
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(store *session.Store, q Querier, extractor *chart.Extractor, results *cache.Store, stats *backend.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:     store,
		backend:   q,
		extractor: extractor,
		cache:     results,
		stats:     stats,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.PopchatAPIKey, s.log))

		r.Post("/api/chat", s.handleChat)

		r.Post("/api/sessions", s.handleCreateSession)
		r.Get("/api/sessions", s.handleListSessions)
		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Get("/api/sessions/{sessionID}/messages", s.handleListMessages)
		r.Get("/api/sessions/{sessionID}/analytics", s.handleListAnalytics)
		r.Delete("/api/sessions/{sessionID}", s.handleDeleteSession)

		r.Post("/api/analytics", s.handleAnalytics)
		r.Get("/api/stats/backend", s.handleBackendStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
