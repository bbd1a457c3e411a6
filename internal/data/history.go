package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/domain"
	"github.com/agendai/calendar-agent/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// historyRepo implements the History repository on sqlite
type historyRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a new History repository
func NewHistoryRepo(dbPath string) (repo.HistoryRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT,
			tool_calls TEXT,
			tool_call_id TEXT,
			tool_name TEXT,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, id)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create messages index: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS appointments (
			event_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			summary TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			reminder_sent INTEGER NOT NULL DEFAULT 0,
			follow_up_sent INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create appointments table: %w", err)
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_appointments_pending ON appointments(reminder_sent, follow_up_sent)`)

	return &historyRepo{db: db}, nil
}

// GetRecentMessages returns the most recent limit messages for a user,
// oldest first.
func (r *historyRepo) GetRecentMessages(ctx context.Context, userID string, limit int) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role, content, tool_calls, tool_call_id, tool_name, created_at
		FROM messages
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var reversed []domain.Message
	for rows.Next() {
		var msg domain.Message
		var content, toolCalls, toolCallID, toolName sql.NullString
		var createdAt int64
		if err := rows.Scan(&msg.Role, &content, &toolCalls, &toolCallID, &toolName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Content = content.String
		msg.ToolCallID = toolCallID.String
		msg.ToolName = toolName.String
		msg.CreatedAt = time.Unix(createdAt, 0)
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to decode tool calls: %w", err)
			}
		}
		reversed = append(reversed, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	// The query walks newest-first; callers want chronological order.
	messages := make([]domain.Message, len(reversed))
	for i, m := range reversed {
		messages[len(reversed)-1-i] = m
	}
	return messages, nil
}

// AppendMessage appends one message to a user's history
func (r *historyRepo) AppendMessage(ctx context.Context, userID string, msg *domain.Message) error {
	var toolCalls any
	if len(msg.ToolCalls) > 0 {
		encoded, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("failed to encode tool calls: %w", err)
		}
		toolCalls = string(encoded)
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (user_id, role, content, tool_calls, tool_call_id, tool_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, string(msg.Role), msg.Content, toolCalls, msg.ToolCallID, msg.ToolName, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ClearHistory removes a user's entire transcript
func (r *historyRepo) ClearHistory(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// UpsertAppointment stores a booked appointment
func (r *historyRepo) UpsertAppointment(ctx context.Context, appt *domain.Appointment) error {
	createdAt := appt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO appointments
			(event_id, user_id, summary, description, start_time, end_time, reminder_sent, follow_up_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		appt.EventID,
		appt.UserID,
		appt.Summary,
		appt.Description,
		appt.StartTime,
		appt.EndTime,
		boolToInt(appt.ReminderSent),
		boolToInt(appt.FollowUpSent),
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert appointment: %w", err)
	}
	return nil
}

// GetPendingAppointments returns appointments with at least one flag false
func (r *historyRepo) GetPendingAppointments(ctx context.Context) ([]*domain.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, user_id, summary, description, start_time, end_time, reminder_sent, follow_up_sent, created_at
		FROM appointments
		WHERE reminder_sent = 0 OR follow_up_sent = 0
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*domain.Appointment
	for rows.Next() {
		var appt domain.Appointment
		var reminderSent, followUpSent int
		var createdAt int64
		if err := rows.Scan(&appt.EventID, &appt.UserID, &appt.Summary, &appt.Description,
			&appt.StartTime, &appt.EndTime, &reminderSent, &followUpSent, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appt.ReminderSent = reminderSent != 0
		appt.FollowUpSent = followUpSent != 0
		appt.CreatedAt = time.Unix(createdAt, 0)
		appointments = append(appointments, &appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return appointments, nil
}

// MarkNotificationSent flips one notification flag to true
func (r *historyRepo) MarkNotificationSent(ctx context.Context, eventID string, kind domain.NotificationKind) error {
	var column string
	switch kind {
	case domain.NotificationReminder:
		column = "reminder_sent"
	case domain.NotificationFollowUp:
		column = "follow_up_sent"
	default:
		return fmt.Errorf("unknown notification kind: %s", kind)
	}

	_, err := r.db.ExecContext(ctx, `UPDATE appointments SET `+column+` = 1 WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark %s sent: %w", kind, err)
	}
	return nil
}

// Close closes the database connection
func (r *historyRepo) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
