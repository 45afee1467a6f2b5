package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/chat"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/config"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/conversation"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/gateway"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/hub"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/logger"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	l, closeLog := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer closeLog()

	profile := cfg.Profile()
	client := gateway.NewClient(cfg.BackendURL, profile)

	log.Printf("Starting chat web front-end...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Backend URL: %s (%s)", client.BaseURL(), profile.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize hub
	connectionHub := hub.New()
	go connectionHub.Run(ctx)

	store := conversation.NewStore(cfg.Settings())
	store.SetLocation(cfg.Location)
	svc := chat.NewService(store, client, l)

	server := web.NewServer(web.Options{
		RateLimit:      cfg.RateLimit,
		PingInterval:   cfg.PingInterval,
		WriteTimeout:   cfg.WriteTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		MaxMessageSize: cfg.MaxMessageSize,
		BackendURL:     client.BaseURL(),
	}, profile, svc, connectionHub)

	if status := svc.CheckHealth(ctx); !status.Healthy {
		log.Printf("Backend is not reachable yet: %s", status.Error)
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	log.Printf("HTTP server started on port %d, session %s", cfg.HTTPPort, store.SessionID())

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down web front-end...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}
	cancel()

	log.Println("Web front-end stopped")
}
