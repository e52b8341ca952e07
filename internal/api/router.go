package api

import (
	"pong-arena/internal/auth"
	"pong-arena/internal/tournament"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// TournamentService defines the orchestrator methods used by the API.
// This interface enables mocking for tests without spinning up engines.
// Keep this minimal - only include methods the API layer actually calls.
type TournamentService interface {
	// ListTournaments returns the current listing in summarized form
	ListTournaments() []tournament.Summary
}

// ConnectionStats defines the registry methods the read-only API uses.
type ConnectionStats interface {
	// ConnCount returns the number of live WebSocket connections
	ConnCount() int
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Tournaments: orchestrator,
//	    Registry:    reg,
//	    Auth:        authenticator,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Tournaments is the tournament orchestrator (required)
	Tournaments TournamentService

	// Registry provides connection statistics (required)
	Registry ConnectionStats

	// Auth mints tokens for the /api/token endpoint (required)
	Auth *auth.Authenticator

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default local-development origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
// This is used internally to pass handlers to route setup.
type routerHandlers struct {
	tournaments TournamentService
	registry    ConnectionStats
	auth        *auth.Authenticator
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Create handlers struct
	h := &routerHandlers{
		tournaments: cfg.Tournaments,
		registry:    cfg.Registry,
		auth:        cfg.Auth,
	}

	// API routes - read-only surface plus the local token mint; all
	// mutations go through the WebSocket.
	r.Route("/api", func(r chi.Router) {
		r.Get("/tournaments", h.handleGetTournaments)
		r.Get("/stats", h.handleGetStats)
		r.Post("/token", h.handleMintToken)
	})

	r.Get("/health", handleHealth)

	return r
}
