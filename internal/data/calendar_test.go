package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func newTestCalendarRepo(t *testing.T, handler http.Handler) *calendarRepo {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(ts.URL),
		option.WithHTTPClient(ts.Client()))
	if err != nil {
		t.Fatalf("failed to create calendar service: %v", err)
	}

	loc := time.FixedZone("-03", -3*60*60)
	return &calendarRepo{
		svc:        svc,
		calendarID: "primary",
		tzName:     loc.String(),
		loc:        loc,
	}
}

func eventsHandler(t *testing.T, events *calendar.Events) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(events); err != nil {
			t.Errorf("encode events: %v", err)
		}
	})
}

func TestCheckAvailability_FullyFree(t *testing.T) {
	var query string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&calendar.Events{})
	})
	repo := newTestCalendarRepo(t, handler)

	summary, err := repo.CheckAvailability(context.Background(), "2026-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "O dia 2026-03-10 está totalmente disponível das 08:00 às 18:00."
	if summary != want {
		t.Errorf("summary = %q, want %q", summary, want)
	}

	// The listing must be bounded to the business-hours window.
	if !strings.Contains(query, "2026-03-10T08") || !strings.Contains(query, "2026-03-10T18") {
		t.Errorf("query window = %q", query)
	}
}

func TestCheckAvailability_BusySlots(t *testing.T) {
	repo := newTestCalendarRepo(t, eventsHandler(t, &calendar.Events{
		Items: []*calendar.Event{
			{
				Summary: "Consulta",
				Start:   &calendar.EventDateTime{DateTime: "2026-03-10T09:00:00-03:00"},
				End:     &calendar.EventDateTime{DateTime: "2026-03-10T10:00:00-03:00"},
			},
		},
	}))

	summary, err := repo.CheckAvailability(context.Background(), "2026-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(summary, "No dia 2026-03-10, os seguintes horários já estão ocupados:") {
		t.Errorf("summary = %q", summary)
	}
	if !strings.Contains(summary, "09:00 às 10:00") {
		t.Errorf("summary = %q, want the 09:00 às 10:00 slot", summary)
	}
}

func TestCheckAvailability_AllDayEvent(t *testing.T) {
	repo := newTestCalendarRepo(t, eventsHandler(t, &calendar.Events{
		Items: []*calendar.Event{
			{
				Summary: "Feriado",
				Start:   &calendar.EventDateTime{Date: "2026-03-10"},
				End:     &calendar.EventDateTime{Date: "2026-03-11"},
			},
		},
	}))

	summary, err := repo.CheckAvailability(context.Background(), "2026-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(summary, "Dia todo: Feriado") {
		t.Errorf("summary = %q, want all-day slot", summary)
	}
}

func TestCheckAvailability_InvalidDate(t *testing.T) {
	repo := newTestCalendarRepo(t, eventsHandler(t, &calendar.Events{}))

	if _, err := repo.CheckAvailability(context.Background(), "10/03/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestCheckAvailability_BackendError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	repo := newTestCalendarRepo(t, handler)

	if _, err := repo.CheckAvailability(context.Background(), "2026-03-10"); err == nil {
		t.Error("expected error when the provider fails")
	}
}

func TestCreateEvent(t *testing.T) {
	var got calendar.Event
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode event: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&calendar.Event{
			Id:       "evt-1",
			HtmlLink: "https://calendar.google.com/event?eid=evt-1",
		})
	})
	repo := newTestCalendarRepo(t, handler)

	created, err := repo.CreateEvent(context.Background(),
		"Consulta", "2026-03-10T14:00:00", "2026-03-10T15:00:00", "retorno")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.EventID != "evt-1" {
		t.Errorf("EventID = %q", created.EventID)
	}
	if created.HTMLLink == "" {
		t.Error("HTMLLink missing")
	}

	if got.Summary != "Consulta" || got.Description != "retorno" {
		t.Errorf("sent event = %+v", got)
	}
	if got.Start == nil || got.Start.DateTime != "2026-03-10T14:00:00" || got.Start.TimeZone != "-03" {
		t.Errorf("sent start = %+v", got.Start)
	}
}
