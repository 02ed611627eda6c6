// Package calendar provides the Google Calendar adapter.
package calendar

import (
	"context"
	"fmt"
	"time"

	"assistant_server/core/port/out"
	"assistant_server/pkg/httputil"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const primaryCalendar = "primary"

// Provider implements out.CalendarProviderPort for Google Calendar. Each
// instance is bound to one user's token.
type Provider struct {
	service *gcal.Service
}

// NewProvider creates a Calendar provider for one user.
func NewProvider(ctx context.Context, token *oauth2.Token, config *oauth2.Config) (*Provider, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httputil.GoogleClient())
	client := config.Client(ctx, token)
	service, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Provider{service: service}, nil
}

// FreeBusy returns the user's busy periods inside the requested window.
func (p *Provider) FreeBusy(ctx context.Context, req *out.FreeBusyRequest) ([]*out.TimePeriod, error) {
	resp, err := p.service.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: req.TimeMin.Format(time.RFC3339),
		TimeMax: req.TimeMax.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: primaryCalendar}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query free/busy: %w", err)
	}

	cal, ok := resp.Calendars[primaryCalendar]
	if !ok {
		return nil, nil
	}

	periods := make([]*out.TimePeriod, 0, len(cal.Busy))
	for _, busy := range cal.Busy {
		start, err := time.Parse(time.RFC3339, busy.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, busy.End)
		if err != nil {
			continue
		}
		periods = append(periods, &out.TimePeriod{Start: start, End: end})
	}
	return periods, nil
}

// CreateEvent inserts an event on the primary calendar and notifies
// attendees.
func (p *Provider) CreateEvent(ctx context.Context, event *out.CalendarEvent) (*out.CalendarEvent, error) {
	ge := &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: event.End.Format(time.RFC3339)},
		Reminders: &gcal.EventReminders{
			UseDefault:      true,
			ForceSendFields: []string{"UseDefault"},
		},
	}
	for _, attendee := range event.Attendees {
		ge.Attendees = append(ge.Attendees, &gcal.EventAttendee{Email: attendee})
	}

	created, err := p.service.Events.Insert(primaryCalendar, ge).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return convertEvent(created), nil
}

// ListUpcoming returns up to max upcoming events ordered by start time.
func (p *Provider) ListUpcoming(ctx context.Context, max int) ([]*out.CalendarEvent, error) {
	if max <= 0 {
		max = 10
	}

	resp, err := p.service.Events.List(primaryCalendar).
		TimeMin(time.Now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*out.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, convertEvent(item))
	}
	return events, nil
}

// UpdateEventTime moves an existing event to a new start and end.
func (p *Provider) UpdateEventTime(ctx context.Context, eventID string, start, end time.Time) (*out.CalendarEvent, error) {
	event, err := p.service.Events.Get(primaryCalendar, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event.Start = &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)}
	event.End = &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)}

	updated, err := p.service.Events.Update(primaryCalendar, eventID, event).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return convertEvent(updated), nil
}

// DeleteEvent removes an event and notifies attendees.
func (p *Provider) DeleteEvent(ctx context.Context, eventID string) error {
	if err := p.service.Events.Delete(primaryCalendar, eventID).
		SendUpdates("all").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// Helper functions

func convertEvent(e *gcal.Event) *out.CalendarEvent {
	event := &out.CalendarEvent{
		ID:          e.Id,
		Summary:     e.Summary,
		Description: e.Description,
		HTMLLink:    e.HtmlLink,
	}
	if e.Start != nil {
		event.Start = parseEventTime(e.Start)
	}
	if e.End != nil {
		event.End = parseEventTime(e.End)
	}
	for _, attendee := range e.Attendees {
		event.Attendees = append(event.Attendees, attendee.Email)
	}
	return event
}

func parseEventTime(dt *gcal.EventDateTime) time.Time {
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	}
	if dt.Date != "" {
		if t, err := time.Parse("2006-01-02", dt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Ensure Provider implements out.CalendarProviderPort
var _ out.CalendarProviderPort = (*Provider)(nil)
