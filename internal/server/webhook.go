package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/repo"
	"github.com/agendai/calendar-agent/internal/service"
)

// busyReply is sent when a user's previous turn is still running.
const busyReply = "Ainda estou processando sua mensagem anterior, um momento..."

// WebhookServer receives Evolution API events and feeds inbound user
// messages into the conversation service.
type WebhookServer struct {
	conversation *service.ConversationService
	notifier     repo.NotifierRepo

	server *http.Server
	addr   string
}

// webhookEnvelope mirrors the Evolution API event payload. Only the
// fields the bot reads are declared.
type webhookEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
		} `json:"key"`
		Message struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
		} `json:"message"`
	} `json:"data"`
}

// NewWebhookServer creates a new webhook server
func NewWebhookServer(conversation *service.ConversationService, notifier repo.NotifierRepo, addr string) *WebhookServer {
	return &WebhookServer{
		conversation: conversation,
		notifier:     notifier,
		addr:         addr,
	}
}

// Start starts the HTTP server. Blocks until the server exits.
func (s *WebhookServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("webhook server listening", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Stop shuts the HTTP server down gracefully
func (s *WebhookServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *WebhookServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"service": "calendar-agent",
	})
}

func (s *WebhookServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *WebhookServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error",
			"error":  "invalid payload",
		})
		return
	}

	if envelope.Event != "messages.upsert" {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ignored",
			"reason": "unsupported_event",
		})
		return
	}

	// Events echoed back for the bot's own outbound messages must not
	// feed the conversation loop.
	if envelope.Data.Key.FromMe {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ignored",
			"reason": "own_message",
		})
		return
	}

	userID := envelope.Data.Key.RemoteJid
	text := envelope.Data.Message.Conversation
	if text == "" {
		text = envelope.Data.Message.ExtendedTextMessage.Text
	}
	if userID == "" || text == "" {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ignored",
			"reason": "empty_message",
		})
		return
	}

	// A turn can span several provider rounds, so it runs on its own
	// context rather than the request's.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	answer, err := s.conversation.HandleMessage(ctx, &service.MessageRequest{
		UserID: userID,
		Text:   text,
	})
	if err != nil {
		if errors.Is(err, service.ErrAlreadyProcessing) {
			if sendErr := s.notifier.SendText(ctx, userID, busyReply); sendErr != nil {
				slog.Warn("failed to deliver busy notice", "user_id", userID, "error", sendErr)
			}
			s.writeJSON(w, http.StatusOK, map[string]string{
				"status": "ignored",
				"reason": "busy",
			})
			return
		}
		slog.Error("webhook turn failed", "user_id", userID, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"reply":  answer,
	})
}

func (s *WebhookServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
