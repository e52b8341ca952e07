package api

import (
	"log"
	"net/http"

	"pong-arena/internal/auth"
	"pong-arena/internal/registry"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with the game WebSocket endpoint.
type Server struct {
	router      *chi.Mux
	wsHandler   *WSHandler
	rateLimiter *IPRateLimiter
}

// ServerConfig bundles the dependencies of the full server.
type ServerConfig struct {
	Tournaments TournamentService
	Registry    *registry.Registry
	Auth        *auth.Authenticator
	CORSOrigins []string
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: No goroutines are started and no listeners are opened
// until Start() is called, so tests can construct the server and use
// Router() with httptest.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		wsHandler:   NewWSHandler(cfg.Registry, cfg.Auth),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		Tournaments: cfg.Tournaments,
		Registry:    cfg.Registry,
		Auth:        cfg.Auth,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	// The WebSocket route needs the handler instance, so it can't be
	// part of the pure NewRouter factory.
	s.router.Get("/game", s.wsHandler.ServeHTTP)

	return s
}

// Start begins the HTTP server. Call this method only once; to stop
// the server, signal the process.
func (s *Server) Start(addr string) error {
	log.Printf("🌐 Server starting on %s", addr)
	log.Printf("🏓 Game WebSocket: ws://localhost%s/game?token=...", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
