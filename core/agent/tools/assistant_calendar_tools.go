package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"assistant_server/core/port/out"
)

// =============================================================================
// Calendar Tools
// =============================================================================

const timeLayout = time.RFC3339

// argString extracts a required string argument.
func argString(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return s, nil
}

// argInt extracts an optional integer argument with a default.
func argInt(args map[string]any, name string, def int) int {
	v, ok := args[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		var parsed int
		if _, err := fmt.Sscanf(n, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return def
}

// argTime parses a required time argument. Accepts RFC3339 and the common
// zoneless variant the model tends to emit.
func argTime(args map[string]any, name string) (time.Time, error) {
	s, err := argString(args, name)
	if err != nil {
		return time.Time{}, err
	}
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("argument %q is not a valid timestamp: %s", name, s)
	}
	return t, nil
}

// NewCalendarRegistry builds the scheduling agent's tool set over one
// user's calendar.
func NewCalendarRegistry(cal out.CalendarProviderPort, workStart, workEnd int) *Registry {
	return NewRegistry(
		&CheckAvailabilityTool{cal: cal},
		&ProposeSlotsTool{cal: cal, workStart: workStart, workEnd: workEnd},
		&ScheduleTool{cal: cal},
		&ListUpcomingTool{cal: cal},
		&RescheduleTool{cal: cal},
		&CancelTool{cal: cal},
	)
}

// -----------------------------------------------------------------------------
// check_availability
// -----------------------------------------------------------------------------

// CheckAvailabilityTool reports the user's busy periods in a window.
type CheckAvailabilityTool struct {
	cal out.CalendarProviderPort
}

func (t *CheckAvailabilityTool) Name() string           { return "check_availability" }
func (t *CheckAvailabilityTool) Category() ToolCategory { return CategoryCalendar }
func (t *CheckAvailabilityTool) Description() string {
	return "Check the user's calendar availability between a start and end time. Returns busy periods, or nothing if the user is free."
}

func (t *CheckAvailabilityTool) Parameters() []ParameterSpec {
	return []ParameterSpec{
		{Name: "start_time", Type: "string", Description: "Window start in ISO 8601 format", Required: true},
		{Name: "end_time", Type: "string", Description: "Window end in ISO 8601 format", Required: true},
	}
}

func (t *CheckAvailabilityTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	start, err := argTime(args, "start_time")
	if err != nil {
		return "", err
	}
	end, err := argTime(args, "end_time")
	if err != nil {
		return "", err
	}

	busy, err := t.cal.FreeBusy(ctx, &out.FreeBusyRequest{TimeMin: start, TimeMax: end})
	if err != nil {
		return "", err
	}
	if len(busy) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Busy periods:\n")
	for _, p := range busy {
		fmt.Fprintf(&b, "- %s to %s\n", p.Start.Format(timeLayout), p.End.Format(timeLayout))
	}
	return b.String(), nil
}

// -----------------------------------------------------------------------------
// propose_slots
// -----------------------------------------------------------------------------

// ProposeSlotsTool finds open one-hour slots within working hours over the
// next seven days.
type ProposeSlotsTool struct {
	cal       out.CalendarProviderPort
	workStart int
	workEnd   int
}

func (t *ProposeSlotsTool) Name() string           { return "propose_slots" }
func (t *ProposeSlotsTool) Category() ToolCategory { return CategoryCalendar }
func (t *ProposeSlotsTool) Description() string {
	return "Propose up to three available one-hour meeting slots within working hours over the next seven days."
}

func (t *ProposeSlotsTool) Parameters() []ParameterSpec {
	return nil
}

func (t *ProposeSlotsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	now := time.Now()
	windowEnd := now.AddDate(0, 0, 7)

	busy, err := t.cal.FreeBusy(ctx, &out.FreeBusyRequest{TimeMin: now, TimeMax: windowEnd})
	if err != nil {
		return "", err
	}

	var slots []time.Time
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for d := 0; d < 7 && len(slots) < 3; d++ {
		for hour := t.workStart; hour < t.workEnd && len(slots) < 3; hour++ {
			slotStart := day.AddDate(0, 0, d).Add(time.Duration(hour) * time.Hour)
			slotEnd := slotStart.Add(time.Hour)
			if slotStart.Before(now) {
				continue
			}
			if !overlapsAny(slotStart, slotEnd, busy) {
				slots = append(slots, slotStart)
			}
		}
	}

	if len(slots) == 0 {
		return "No available slots found in the next 7 days.", nil
	}

	var b strings.Builder
	b.WriteString("Proposed available slots:\n")
	for _, s := range slots {
		fmt.Fprintf(&b, "- %s to %s\n", s.Format(timeLayout), s.Add(time.Hour).Format(timeLayout))
	}
	return b.String(), nil
}

func overlapsAny(start, end time.Time, busy []*out.TimePeriod) bool {
	for _, p := range busy {
		if start.Before(p.End) && end.After(p.Start) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// schedule
// -----------------------------------------------------------------------------

// ScheduleTool creates a calendar event and invites attendees.
type ScheduleTool struct {
	cal out.CalendarProviderPort
}

func (t *ScheduleTool) Name() string           { return "schedule" }
func (t *ScheduleTool) Category() ToolCategory { return CategoryCalendar }
func (t *ScheduleTool) Description() string {
	return "Schedule a new calendar event with the given title, time range, and attendee email addresses."
}

func (t *ScheduleTool) Parameters() []ParameterSpec {
	return []ParameterSpec{
		{Name: "summary", Type: "string", Description: "Event title", Required: true},
		{Name: "start_time", Type: "string", Description: "Event start in ISO 8601 format", Required: true},
		{Name: "end_time", Type: "string", Description: "Event end in ISO 8601 format", Required: true},
		{Name: "attendees", Type: "string", Description: "Comma-separated attendee email addresses", Required: false},
		{Name: "description", Type: "string", Description: "Event description", Required: false},
	}
}

func (t *ScheduleTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	summary, err := argString(args, "summary")
	if err != nil {
		return "", err
	}
	start, err := argTime(args, "start_time")
	if err != nil {
		return "", err
	}
	end, err := argTime(args, "end_time")
	if err != nil {
		return "", err
	}

	event := &out.CalendarEvent{
		Summary: summary,
		Start:   start,
		End:     end,
	}
	if desc, ok := args["description"].(string); ok {
		event.Description = desc
	}
	if raw, ok := args["attendees"].(string); ok && raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				event.Attendees = append(event.Attendees, a)
			}
		}
	}

	created, err := t.cal.CreateEvent(ctx, event)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Event scheduled successfully. Link: %s", created.HTMLLink), nil
}

// -----------------------------------------------------------------------------
// list_upcoming
// -----------------------------------------------------------------------------

// ListUpcomingTool lists the user's upcoming events.
type ListUpcomingTool struct {
	cal out.CalendarProviderPort
}

func (t *ListUpcomingTool) Name() string           { return "list_upcoming" }
func (t *ListUpcomingTool) Category() ToolCategory { return CategoryCalendar }
func (t *ListUpcomingTool) Description() string {
	return "List the user's upcoming calendar events with their event IDs. Use this to find an existing event before rescheduling or cancelling."
}

func (t *ListUpcomingTool) Parameters() []ParameterSpec {
	return []ParameterSpec{
		{Name: "max_results", Type: "number", Description: "Maximum number of events to return (default 10)", Required: false},
	}
}

func (t *ListUpcomingTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	max := argInt(args, "max_results", 10)

	events, err := t.cal.ListUpcoming(ctx, max)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "No upcoming events found.", nil
	}

	type eventView struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
		Start   string `json:"start"`
		End     string `json:"end"`
	}
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, eventView{
			ID:      e.ID,
			Summary: e.Summary,
			Start:   e.Start.Format(timeLayout),
			End:     e.End.Format(timeLayout),
		})
	}

	data, err := json.Marshal(views)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// -----------------------------------------------------------------------------
// reschedule
// -----------------------------------------------------------------------------

// RescheduleTool moves an existing event to a new time.
type RescheduleTool struct {
	cal out.CalendarProviderPort
}

func (t *RescheduleTool) Name() string           { return "reschedule" }
func (t *RescheduleTool) Category() ToolCategory { return CategoryCalendar }
func (t *RescheduleTool) Description() string {
	return "Move an existing calendar event to a new start and end time."
}

func (t *RescheduleTool) Parameters() []ParameterSpec {
	return []ParameterSpec{
		{Name: "event_id", Type: "string", Description: "ID of the event to move", Required: true},
		{Name: "new_start_time", Type: "string", Description: "New start in ISO 8601 format", Required: true},
		{Name: "new_end_time", Type: "string", Description: "New end in ISO 8601 format", Required: true},
	}
}

func (t *RescheduleTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	eventID, err := argString(args, "event_id")
	if err != nil {
		return "", err
	}
	start, err := argTime(args, "new_start_time")
	if err != nil {
		return "", err
	}
	end, err := argTime(args, "new_end_time")
	if err != nil {
		return "", err
	}

	updated, err := t.cal.UpdateEventTime(ctx, eventID, start, end)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Event rescheduled successfully. Link: %s", updated.HTMLLink), nil
}

// -----------------------------------------------------------------------------
// cancel
// -----------------------------------------------------------------------------

// CancelTool deletes an event from the user's calendar.
type CancelTool struct {
	cal out.CalendarProviderPort
}

func (t *CancelTool) Name() string           { return "cancel" }
func (t *CancelTool) Category() ToolCategory { return CategoryCalendar }
func (t *CancelTool) Description() string {
	return "Cancel an existing calendar event by its event ID."
}

func (t *CancelTool) Parameters() []ParameterSpec {
	return []ParameterSpec{
		{Name: "event_id", Type: "string", Description: "ID of the event to cancel", Required: true},
	}
}

func (t *CancelTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	eventID, err := argString(args, "event_id")
	if err != nil {
		return "", err
	}
	if err := t.cal.DeleteEvent(ctx, eventID); err != nil {
		return "", err
	}
	return "Event canceled successfully.", nil
}
