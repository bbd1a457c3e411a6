package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/domain"
	"github.com/agendai/calendar-agent/internal/biz/repo"
)

// Tool is one entry of the closed tool catalog. Execute never returns an
// error: failures become result strings so the orchestration loop can
// continue and the model can adapt.
type Tool interface {
	Schema() domain.ToolSchema
	Execute(ctx context.Context, userID string, args map[string]any) string
}

// ToolSet maps tool names to handlers. The catalog is fixed per
// deployment; dispatch never branches on a growing enumeration.
type ToolSet map[string]Tool

// NewToolSet builds the assistant's catalog: the side-effect-free reason
// tool plus the two calendar tools.
func NewToolSet(calendarRepo repo.CalendarRepo, historyRepo repo.HistoryRepo) ToolSet {
	ts := ToolSet{}
	for _, t := range []Tool{
		&reasonTool{},
		&availabilityTool{calendar: calendarRepo},
		&bookingTool{calendar: calendarRepo, history: historyRepo},
	} {
		ts[t.Schema().Name] = t
	}
	return ts
}

// Schemas returns the catalog in a stable form for the completion provider.
func (ts ToolSet) Schemas() []domain.ToolSchema {
	names := []string{"reason", "check_availability", "book_appointment"}
	var out []domain.ToolSchema
	for _, n := range names {
		if t, ok := ts[n]; ok {
			out = append(out, t.Schema())
		}
	}
	return out
}

// Dispatch executes one requested tool call and returns its result
// string. Unknown tools and malformed arguments come back as result
// strings too; dispatch itself never fails the turn.
func (ts ToolSet) Dispatch(ctx context.Context, userID string, call domain.ToolCall) string {
	tool, ok := ts[call.Name]
	if !ok {
		return fmt.Sprintf("Ferramenta desconhecida: %s", call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("Argumentos inválidos para %s: %v", call.Name, err)
		}
	}

	slog.Debug("executing tool", "tool", call.Name, "user_id", userID)
	return tool.Execute(ctx, userID, args)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// reasonTool records internal deliberation. It has no external effect
// and is kept separate from the side-effecting tools so the dispatch
// table stays auditable.
type reasonTool struct{}

func (t *reasonTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "reason",
		Description: "Registra um raciocínio interno antes de agir. Use para planejar os próximos passos.",
		Properties: map[string]any{
			"thought": map[string]any{
				"type":        "string",
				"description": "O raciocínio a registrar",
			},
		},
		Required: []string{"thought"},
	}
}

func (t *reasonTool) Execute(ctx context.Context, userID string, args map[string]any) string {
	return "Raciocínio registrado."
}

type availabilityTool struct {
	calendar repo.CalendarRepo
}

func (t *availabilityTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "check_availability",
		Description: "Verifica a disponibilidade de horários para uma data específica.",
		Properties: map[string]any{
			"date": map[string]any{
				"type":        "string",
				"description": "A data no formato YYYY-MM-DD",
			},
		},
		Required: []string{"date"},
	}
}

func (t *availabilityTool) Execute(ctx context.Context, userID string, args map[string]any) string {
	date := stringArg(args, "date")
	summary, err := t.calendar.CheckAvailability(ctx, date)
	if err != nil {
		slog.Warn("availability check failed", "date", date, "error", err)
		return fmt.Sprintf("Não foi possível consultar a agenda para %s.", date)
	}
	return summary
}

type bookingTool struct {
	calendar repo.CalendarRepo
	history  repo.HistoryRepo
}

func (t *bookingTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "book_appointment",
		Description: "Agenda um compromisso no calendário.",
		Properties: map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "O título do agendamento (ex: Consulta com Samuel)",
			},
			"start_time": map[string]any{
				"type":        "string",
				"description": "O horário de início no formato ISO 8601 (ex: 2024-05-15T14:00:00Z)",
			},
			"end_time": map[string]any{
				"type":        "string",
				"description": "O horário de término no formato ISO 8601 (ex: 2024-05-15T15:00:00Z)",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Uma breve descrição do agendamento",
			},
		},
		Required: []string{"summary", "start_time", "end_time"},
	}
}

func (t *bookingTool) Execute(ctx context.Context, userID string, args map[string]any) string {
	summary := stringArg(args, "summary")
	startTime := stringArg(args, "start_time")
	endTime := stringArg(args, "end_time")
	description := stringArg(args, "description")

	event, err := t.calendar.CreateEvent(ctx, summary, startTime, endTime, description)
	if err != nil {
		slog.Warn("booking failed", "summary", summary, "error", err)
		return "Erro ao realizar o agendamento."
	}

	appt := &domain.Appointment{
		EventID:     event.EventID,
		UserID:      userID,
		Summary:     summary,
		Description: description,
		StartTime:   startTime,
		EndTime:     endTime,
		CreatedAt:   time.Now(),
	}
	if err := t.history.UpsertAppointment(ctx, appt); err != nil {
		// The calendar event exists; only the reminder/follow-up record
		// was lost, so the booking stands but the user is told.
		slog.Error("failed to persist appointment", "event_id", event.EventID, "error", err)
		return fmt.Sprintf("Agendamento confirmado: %s. Atenção: não consegui registrar os lembretes deste compromisso.", event.HTMLLink)
	}

	return fmt.Sprintf("Agendamento confirmado: %s", event.HTMLLink)
}
