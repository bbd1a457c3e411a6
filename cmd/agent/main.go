package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agendai/calendar-agent/internal/api"
	"github.com/agendai/calendar-agent/internal/biz/usecase"
	"github.com/agendai/calendar-agent/internal/conf"
	"github.com/agendai/calendar-agent/internal/data"
	"github.com/agendai/calendar-agent/internal/observability"
	"github.com/agendai/calendar-agent/internal/server"
	"github.com/agendai/calendar-agent/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	observability.Init(cfg.Debug)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	ctx := context.Background()

	// Initialize repository layer
	repos, err := data.NewRepositories(ctx, cfg, loc)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.History.Close()

	slog.Info("history store ready", "path", cfg.History.DBPath)

	// Initialize usecase layer
	tools := usecase.NewToolSet(repos.Calendar, repos.History)
	assistantUC := usecase.NewAssistantUsecase(repos.History, repos.Completion, tools, usecase.AssistantConfig{
		SystemPrompt: cfg.Prompts.Assistant.SystemPrompt,
		HistoryLimit: cfg.History.Limit,
		Location:     loc,
	})
	notifyUC := usecase.NewNotifyUsecase(repos.History, repos.Notifier, usecase.NotifyTemplates{
		Reminder: cfg.Prompts.Notify.ReminderTemplate,
		FollowUp: cfg.Prompts.Notify.FollowUpTemplate,
	}, loc)

	// Initialize service layer
	conversation := service.NewConversationService(assistantUC, repos.Notifier)
	scheduler := service.NewNotifyScheduler(notifyUC, cfg.Notify.Interval)

	webhookServer := server.NewWebhookServer(conversation, repos.Notifier, cfg.Server.ListenAddr)
	adminServer := api.NewServer(repos.History, cfg.Server.AdminAddr)

	scheduler.Start(ctx)

	go func() {
		if err := adminServer.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("admin API server error", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- webhookServer.Start()
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("webhook server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := webhookServer.Stop(shutdownCtx); err != nil {
		slog.Warn("webhook server shutdown", "error", err)
	}
	if err := adminServer.Stop(shutdownCtx); err != nil {
		slog.Warn("admin API shutdown", "error", err)
	}
	scheduler.Stop()
}
