// Package main provides a terminal client for the chat backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/chat"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/config"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/conversation"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/gateway"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/logger"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	url := flag.String("url", cfg.BackendURL, "Backend base URL")
	variant := flag.String("variant", cfg.Variant, "Backend variant (assistant or travel)")
	location := flag.String("location", cfg.Location, "Location sent with travel requests")
	flag.Parse()

	cfg.BackendURL = *url
	cfg.Variant = *variant
	cfg.Location = *location
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	log.SetFlags(log.Ltime)
	l, closeLog := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer closeLog()

	profile := cfg.Profile()
	store := conversation.NewStore(cfg.Settings())
	store.SetLocation(cfg.Location)
	client := gateway.NewClient(cfg.BackendURL, profile)
	svc := chat.NewService(store, client, l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Connecting to %s...\n", client.BaseURL())
	status := svc.CheckHealth(ctx)
	fmt.Println(render.Status(status))
	if !status.Healthy {
		fmt.Println("Backend is not reachable. Start it and try again.")
		os.Exit(1)
	}

	fmt.Printf("Session established: %s\n", store.SessionID())
	fmt.Println("\nType a message and press Enter to send.")
	fmt.Println("Commands: /help for the list, /quit to exit")
	fmt.Println()

	r := &repl{
		svc:     svc,
		profile: profile,
		out:     os.Stdout,
		prompt:  term.IsTerminal(int(os.Stdin.Fd())),
	}
	if err := r.run(ctx, os.Stdin); err != nil {
		log.Fatalf("Read error: %v", err)
	}
}
