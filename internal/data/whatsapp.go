package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/repo"
)

const notifierTimeout = 15 * time.Second

// notifierRepo implements the Notifier repository on the Evolution API
// (WhatsApp) sendText endpoint
type notifierRepo struct {
	baseURL  string
	apiKey   string
	instance string
	client   *http.Client
}

// NewNotifierRepo creates a new Notifier repository
func NewNotifierRepo(baseURL, apiKey, instance string) repo.NotifierRepo {
	return &notifierRepo{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		instance: instance,
		client:   &http.Client{Timeout: notifierTimeout},
	}
}

type sendTextPayload struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText delivers a text message to a WhatsApp user
func (r *notifierRepo) SendText(ctx context.Context, userID, text string) error {
	// Evolution v2 wants bare numbers without the @s.whatsapp.net suffix
	number, _, _ := strings.Cut(userID, "@")

	body, err := json.Marshal(sendTextPayload{Number: number, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", r.baseURL, r.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("evolution api returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
