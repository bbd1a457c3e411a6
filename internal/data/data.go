package data

import (
	"context"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/repo"
	"github.com/agendai/calendar-agent/internal/conf"
)

// Repositories contains all repositories
type Repositories struct {
	History    repo.HistoryRepo
	Completion repo.CompletionRepo
	Calendar   repo.CalendarRepo
	Notifier   repo.NotifierRepo
}

// NewRepositories creates all repositories
func NewRepositories(ctx context.Context, cfg *conf.Config, loc *time.Location) (*Repositories, error) {
	historyRepo, err := NewHistoryRepo(cfg.History.DBPath)
	if err != nil {
		return nil, err
	}

	calendarRepo, err := NewCalendarRepo(ctx, cfg.Google.CredentialsPath, cfg.Google.TokenPath, cfg.Google.CalendarID, loc)
	if err != nil {
		historyRepo.Close()
		return nil, err
	}

	return &Repositories{
		History:    historyRepo,
		Completion: NewCompletionRepo(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL),
		Calendar:   calendarRepo,
		Notifier:   NewNotifierRepo(cfg.Evolution.APIURL, cfg.Evolution.APIKey, cfg.Evolution.Instance),
	}, nil
}
