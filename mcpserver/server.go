package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agendai/calendar-agent/internal/biz/repo"
)

// CalendarMCPServer exposes the bot's calendar operations as MCP tools,
// so external agents can check availability and book appointments over
// the same provider the bot itself uses.
type CalendarMCPServer struct {
	server   *mcp.Server
	calendar repo.CalendarRepo
}

// NewServer creates a new calendar MCP server
func NewServer(calendar repo.CalendarRepo) *CalendarMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "calendar-tools",
		Version: "v1.0.0",
	}, nil)

	cs := &CalendarMCPServer{
		server:   server,
		calendar: calendar,
	}

	cs.registerTools()

	return cs
}

func (s *CalendarMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "calendar_check_availability",
		Description: "Check free and busy slots on the calendar for a given date during business hours (08:00-18:00). Returns a human-readable summary.",
	}, s.handleCheckAvailability)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "calendar_book_appointment",
		Description: "Book an appointment on the calendar. Times are ISO-8601 local instants, e.g. 2026-03-10T14:00:00. Returns the created event ID and link.",
	}, s.handleBookAppointment)
}

// CheckAvailabilityInput is the input for calendar_check_availability
type CheckAvailabilityInput struct {
	Date string `json:"date" jsonschema:"description=The date to check in YYYY-MM-DD format"`
}

// CheckAvailabilityOutput is the output for calendar_check_availability
type CheckAvailabilityOutput struct {
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

func (s *CalendarMCPServer) handleCheckAvailability(ctx context.Context, req *mcp.CallToolRequest, input CheckAvailabilityInput) (*mcp.CallToolResult, CheckAvailabilityOutput, error) {
	if input.Date == "" {
		return nil, CheckAvailabilityOutput{Error: "date is required"}, nil
	}

	summary, err := s.calendar.CheckAvailability(ctx, input.Date)
	if err != nil {
		return nil, CheckAvailabilityOutput{Error: err.Error()}, nil
	}

	return nil, CheckAvailabilityOutput{Summary: summary}, nil
}

// BookAppointmentInput is the input for calendar_book_appointment
type BookAppointmentInput struct {
	Summary     string `json:"summary" jsonschema:"description=Short title for the appointment"`
	StartTime   string `json:"start_time" jsonschema:"description=Start instant in ISO-8601 format"`
	EndTime     string `json:"end_time" jsonschema:"description=End instant in ISO-8601 format"`
	Description string `json:"description,omitempty" jsonschema:"description=Optional longer description"`
}

// BookAppointmentOutput is the output for calendar_book_appointment
type BookAppointmentOutput struct {
	EventID  string `json:"event_id,omitempty"`
	HTMLLink string `json:"html_link,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *CalendarMCPServer) handleBookAppointment(ctx context.Context, req *mcp.CallToolRequest, input BookAppointmentInput) (*mcp.CallToolResult, BookAppointmentOutput, error) {
	if input.Summary == "" || input.StartTime == "" || input.EndTime == "" {
		return nil, BookAppointmentOutput{Error: "summary, start_time and end_time are required"}, nil
	}

	event, err := s.calendar.CreateEvent(ctx, input.Summary, input.StartTime, input.EndTime, input.Description)
	if err != nil {
		return nil, BookAppointmentOutput{Error: err.Error()}, nil
	}

	return nil, BookAppointmentOutput{EventID: event.EventID, HTMLLink: event.HTMLLink}, nil
}

// Run serves MCP over stdio until the context is cancelled
func (s *CalendarMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
