package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agendai/calendar-agent/internal/biz/repo"
)

// Server exposes a loopback-only admin API for operating the bot:
// inspecting pending appointments and wiping conversation transcripts.
type Server struct {
	historyRepo repo.HistoryRepo

	server *http.Server
	addr   string
}

// NewServer creates a new admin API server
func NewServer(historyRepo repo.HistoryRepo, addr string) *Server {
	return &Server{
		historyRepo: historyRepo,
		addr:        addr,
	}
}

// Start starts the HTTP server. Blocks until the server exits.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/admin/history/clear", s.handleClearHistory)
	mux.HandleFunc("/admin/appointments/pending", s.handlePendingAppointments)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("admin API listening", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if err := s.historyRepo.ClearHistory(r.Context(), userID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"success": true, "user_id": userID})
}

func (s *Server) handlePendingAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	appointments, err := s.historyRepo.GetPendingAppointments(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"appointments": appointments})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
