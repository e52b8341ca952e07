// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all game and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// GAME CONFIGURATION
// =============================================================================

// GameConfig holds the simulation settings shared by every match engine.
// The coordinate system is X 0-200, Y 0-100 (percent of canvas height).
type GameConfig struct {
	TickRate     int           // Simulation ticks per second
	ScoreToWin   int           // Points needed to win a match
	PaddleHeight float64       // Paddle height in court units
	PaddleWidth  float64       // Paddle width in court units
	PaddleSpeed  float64       // Paddle movement speed in units/s
	BallRadius   float64       // Ball radius in court units
	BallSpeed    float64       // Initial ball speed on each axis in units/s
	ServeSpeed   float64       // Horizontal serve speed after a point in units/s
	MaxTickDelta time.Duration // Sanity ceiling; larger elapsed steps are skipped
}

// DefaultGame returns the default game configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		TickRate:     60,
		ScoreToWin:   10,
		PaddleHeight: 14,
		PaddleWidth:  2,
		PaddleSpeed:  55,
		BallRadius:   1,
		BallSpeed:    30,
		ServeSpeed:   50,
		MaxTickDelta: time.Second,
	}
}

// GameFromEnv returns game configuration with environment variable overrides.
// Environment variables take precedence over defaults.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if tr := getEnvInt("GAME_TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if s := getEnvInt("GAME_SCORE_TO_WIN", 0); s > 0 {
		cfg.ScoreToWin = s
	}

	return cfg
}

// =============================================================================
// TOURNAMENT CONFIGURATION
// =============================================================================

// TournamentConfig controls bracket orchestration behavior.
type TournamentConfig struct {
	CountdownFrom     int           // Pre-match countdown start value (broadcast 5..0)
	CountdownInterval time.Duration // Delay between countdown broadcasts
	ForfeitOnDC       bool          // true: disconnect forfeits the match, false: match pauses
	MaxTournaments    int           // Hard cap on simultaneously tracked tournaments
	MaxPlayers        int           // Hard cap on players per tournament
}

// DefaultTournament returns the default tournament configuration.
func DefaultTournament() TournamentConfig {
	return TournamentConfig{
		CountdownFrom:     5,
		CountdownInterval: time.Second,
		ForfeitOnDC:       true,
		MaxTournaments:    100,
		MaxPlayers:        64,
	}
}

// TournamentFromEnv returns tournament configuration with environment overrides.
func TournamentFromEnv() TournamentConfig {
	cfg := DefaultTournament()

	if c := getEnvInt("TOURNAMENT_COUNTDOWN_FROM", 0); c > 0 {
		cfg.CountdownFrom = c
	}
	if v := os.Getenv("TOURNAMENT_FORFEIT_ON_DC"); v == "false" {
		cfg.ForfeitOnDC = false
	}
	if m := getEnvInt("TOURNAMENT_MAX", 0); m > 0 {
		cfg.MaxTournaments = m
	}
	if mp := getEnvInt("TOURNAMENT_MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}

	return cfg
}

// =============================================================================
// AUTH CONFIGURATION
// =============================================================================

// AuthConfig holds session token verification settings.
type AuthConfig struct {
	Secret        string        // HMAC signing secret; empty generates a random per-process key
	TokenDuration time.Duration // Lifetime of locally issued tokens
}

// DefaultAuth returns the default auth configuration.
func DefaultAuth() AuthConfig {
	return AuthConfig{
		TokenDuration: 24 * time.Hour,
	}
}

// AuthFromEnv returns auth configuration with environment overrides.
func AuthFromEnv() AuthConfig {
	cfg := DefaultAuth()
	cfg.Secret = os.Getenv("AUTH_SECRET")
	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	EventLogPath string // JSONL match event log; empty disables file output
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		EventLogPath: "events.jsonl",
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if path := os.Getenv("EVENT_LOG_PATH"); path != "" {
		cfg.EventLogPath = path
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Game       GameConfig
	Tournament TournamentConfig
	Auth       AuthConfig
	Server     ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Game:       GameFromEnv(),
		Tournament: TournamentFromEnv(),
		Auth:       AuthFromEnv(),
		Server:     ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
