package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agendai/calendar-agent/internal/biz/repo"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const calendarTimeout = 30 * time.Second

// Business hours for availability checks.
const (
	businessStartHour = 8
	businessEndHour   = 18
)

// calendarRepo implements the Calendar repository on the Google
// Calendar v3 API
type calendarRepo struct {
	svc        *calendar.Service
	calendarID string
	tzName     string
	loc        *time.Location
}

// NewCalendarRepo creates a new Calendar repository. credentialsPath and
// tokenPath point at the OAuth client secret and a previously authorized
// user token (the interactive consent flow is run out-of-band).
func NewCalendarRepo(ctx context.Context, credentialsPath, tokenPath, calendarID string, loc *time.Location) (repo.CalendarRepo, error) {
	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	config, err := google.ConfigFromJSON(creds, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	tokenData, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(tokenData, token); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}

	return &calendarRepo{
		svc:        svc,
		calendarID: calendarID,
		tzName:     loc.String(),
		loc:        loc,
	}, nil
}

// CheckAvailability returns a free/busy summary for the business-hours
// window of the given date.
func (r *calendarRepo) CheckAvailability(ctx context.Context, date string) (string, error) {
	day, err := time.ParseInLocation("2006-01-02", date, r.loc)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}

	ctx, cancel := context.WithTimeout(ctx, calendarTimeout)
	defer cancel()

	timeMin := day.Add(businessStartHour * time.Hour)
	timeMax := day.Add(businessEndHour * time.Hour)

	events, err := r.svc.Events.List(r.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to list events: %w", err)
	}

	if len(events.Items) == 0 {
		return fmt.Sprintf("O dia %s está totalmente disponível das 08:00 às 18:00.", date), nil
	}

	var busySlots []string
	for _, ev := range events.Items {
		if ev.Start.DateTime == "" {
			// All-day event
			busySlots = append(busySlots, fmt.Sprintf("Dia todo: %s", ev.Summary))
			continue
		}
		start, err1 := time.Parse(time.RFC3339, ev.Start.DateTime)
		end, err2 := time.Parse(time.RFC3339, ev.End.DateTime)
		if err1 != nil || err2 != nil {
			continue
		}
		busySlots = append(busySlots, fmt.Sprintf("%s às %s",
			start.In(r.loc).Format("15:04"), end.In(r.loc).Format("15:04")))
	}

	return fmt.Sprintf("No dia %s, os seguintes horários já estão ocupados: %s",
		date, strings.Join(busySlots, ", ")), nil
}

// CreateEvent books an event on the calendar
func (r *calendarRepo) CreateEvent(ctx context.Context, summary, startTime, endTime, description string) (*repo.CreatedEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, calendarTimeout)
	defer cancel()

	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: startTime,
			TimeZone: r.tzName,
		},
		End: &calendar.EventDateTime{
			DateTime: endTime,
			TimeZone: r.tzName,
		},
	}

	created, err := r.svc.Events.Insert(r.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	return &repo.CreatedEvent{
		EventID:  created.Id,
		HTMLLink: created.HtmlLink,
	}, nil
}
