package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"pong-arena/internal/api"
	"pong-arena/internal/auth"
	"pong-arena/internal/chat"
	"pong-arena/internal/config"
	"pong-arena/internal/match"
	"pong-arena/internal/registry"
	"pong-arena/internal/tournament"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🏓 ================================")
	log.Println("🏓  PONG ARENA - GO ENGINE")
	log.Println("🏓  Tournaments over WebSocket")
	log.Println("🏓 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	gameCfg := appConfig.Game
	tournamentCfg := appConfig.Tournament
	serverCfg := appConfig.Server

	port := strconv.Itoa(serverCfg.Port)
	log.Printf("🎮 Config: %d Hz tick, first to %d, countdown from %d",
		gameCfg.TickRate, gameCfg.ScoreToWin, tournamentCfg.CountdownFrom)

	// Event log (audit trail for matches and tournaments)
	eventLog := match.NewEventLog()
	if err := eventLog.Start(serverCfg.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
		eventLog = nil
	} else {
		log.Printf("📝 Event log: %s", serverCfg.EventLogPath)
	}

	// Debug server (pprof + prometheus, localhost only)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Core wiring: registry carries connections, the orchestrator owns
	// tournaments and match engines, chat rides the same socket.
	reg := registry.New()
	orchestrator := tournament.NewOrchestrator(tournamentCfg, gameCfg, reg)
	if eventLog != nil {
		orchestrator.SetEventLog(eventLog)
	}
	orchestrator.SetMetrics(tournament.Metrics{
		TickDuration:      api.RecordTick,
		PointScored:       api.RecordPoint,
		MatchesActive:     api.UpdateMatchCount,
		TournamentsActive: api.UpdateTournamentCount,
	})
	chatService := chat.NewService(reg)

	routes := orchestrator.Routes()
	routes.Chat = chatService.Handle
	reg.SetRoutes(routes)

	authenticator := auth.New(appConfig.Auth)

	// Extra CORS origins for deployments behind a real domain
	var corsOrigins []string
	if env := os.Getenv("ALLOWED_ORIGINS"); env != "" {
		corsOrigins = strings.Split(env, ",")
		api.SetAllowedOrigins(corsOrigins)
	}

	server := api.NewServer(api.ServerConfig{
		Tournaments: orchestrator,
		Registry:    reg,
		Auth:        authenticator,
		CORSOrigins: corsOrigins,
	})

	// Start API server in goroutine
	go func() {
		addr := ":" + port
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	orchestrator.Shutdown()
	server.Stop()
	if eventLog != nil {
		eventLog.Stop()
	}
	log.Println("👋 Goodbye!")
}
