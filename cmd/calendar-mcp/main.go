package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/agendai/calendar-agent/internal/conf"
	"github.com/agendai/calendar-agent/internal/data"
	"github.com/agendai/calendar-agent/mcpserver"
)

// Standalone MCP server exposing the calendar tools over stdio. Logs go
// to stderr; stdout carries the protocol.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calendarRepo, err := data.NewCalendarRepo(ctx, cfg.Google.CredentialsPath, cfg.Google.TokenPath, cfg.Google.CalendarID, loc)
	if err != nil {
		log.Fatalf("Failed to create calendar client: %v", err)
	}

	srv := mcpserver.NewServer(calendarRepo)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
