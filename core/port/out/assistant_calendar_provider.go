package out

import (
	"context"
	"time"
)

// =============================================================================
// Calendar Provider Port (Google Calendar)
// =============================================================================

// CalendarProviderPort defines the outbound port for the user's calendar.
// Each instance is bound to one user's OAuth token.
type CalendarProviderPort interface {
	// FreeBusy returns the user's busy periods inside the requested window.
	FreeBusy(ctx context.Context, req *FreeBusyRequest) ([]*TimePeriod, error)

	// CreateEvent inserts an event and returns it with provider fields set.
	CreateEvent(ctx context.Context, event *CalendarEvent) (*CalendarEvent, error)

	// ListUpcoming returns up to max upcoming events ordered by start time.
	ListUpcoming(ctx context.Context, max int) ([]*CalendarEvent, error)

	// UpdateEventTime moves an existing event to a new start/end.
	UpdateEventTime(ctx context.Context, eventID string, start, end time.Time) (*CalendarEvent, error)

	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, eventID string) error
}

// FreeBusyRequest represents a free/busy query window.
type FreeBusyRequest struct {
	TimeMin time.Time
	TimeMax time.Time
}

// TimePeriod represents a busy time period.
type TimePeriod struct {
	Start time.Time
	End   time.Time
}

// CalendarEvent represents a calendar event.
type CalendarEvent struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	HTMLLink    string
}
