package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agendai/calendar-agent/internal/biz/domain"
)

// MockHistoryRepo implements repo.HistoryRepo for testing
type MockHistoryRepo struct {
	pending    []*domain.Appointment
	pendingErr error
	cleared    []string
}

func (m *MockHistoryRepo) GetRecentMessages(ctx context.Context, userID string, limit int) ([]domain.Message, error) {
	return nil, nil
}

func (m *MockHistoryRepo) AppendMessage(ctx context.Context, userID string, msg *domain.Message) error {
	return nil
}

func (m *MockHistoryRepo) ClearHistory(ctx context.Context, userID string) error {
	m.cleared = append(m.cleared, userID)
	return nil
}

func (m *MockHistoryRepo) UpsertAppointment(ctx context.Context, appt *domain.Appointment) error {
	return nil
}

func (m *MockHistoryRepo) GetPendingAppointments(ctx context.Context) ([]*domain.Appointment, error) {
	return m.pending, m.pendingErr
}

func (m *MockHistoryRepo) MarkNotificationSent(ctx context.Context, eventID string, kind domain.NotificationKind) error {
	return nil
}

func (m *MockHistoryRepo) Close() error { return nil }

func TestHandlePendingAppointments(t *testing.T) {
	mockRepo := &MockHistoryRepo{
		pending: []*domain.Appointment{
			{EventID: "evt-1", UserID: "u1", Summary: "Consulta", StartTime: "2026-03-10T14:00:00"},
			{EventID: "evt-2", UserID: "u2", Summary: "Retorno", StartTime: "2026-03-11T09:00:00"},
		},
	}

	server := &Server{historyRepo: mockRepo}

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments/pending", nil)
	w := httptest.NewRecorder()

	server.handlePendingAppointments(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result map[string][]domain.Appointment
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(result["appointments"]) != 2 {
		t.Errorf("Expected 2 appointments, got %d", len(result["appointments"]))
	}
	if result["appointments"][0].EventID != "evt-1" {
		t.Errorf("Expected first appointment evt-1, got %s", result["appointments"][0].EventID)
	}
}

func TestHandlePendingAppointments_RepoError(t *testing.T) {
	server := &Server{historyRepo: &MockHistoryRepo{pendingErr: errors.New("db closed")}}

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments/pending", nil)
	w := httptest.NewRecorder()

	server.handlePendingAppointments(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestHandlePendingAppointments_MethodNotAllowed(t *testing.T) {
	server := &Server{historyRepo: &MockHistoryRepo{}}

	req := httptest.NewRequest(http.MethodPost, "/admin/appointments/pending", nil)
	w := httptest.NewRecorder()

	server.handlePendingAppointments(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestHandleClearHistory(t *testing.T) {
	mockRepo := &MockHistoryRepo{}
	server := &Server{historyRepo: mockRepo}

	req := httptest.NewRequest(http.MethodPost, "/admin/history/clear?user_id=u1", nil)
	w := httptest.NewRecorder()

	server.handleClearHistory(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(mockRepo.cleared) != 1 || mockRepo.cleared[0] != "u1" {
		t.Errorf("Expected u1 cleared, got %v", mockRepo.cleared)
	}
}

func TestHandleClearHistory_RequiresUserID(t *testing.T) {
	server := &Server{historyRepo: &MockHistoryRepo{}}

	req := httptest.NewRequest(http.MethodPost, "/admin/history/clear", nil)
	w := httptest.NewRecorder()

	server.handleClearHistory(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
