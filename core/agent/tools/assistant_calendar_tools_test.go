package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"assistant_server/core/port/out"
)

// mockCalendar is a scriptable CalendarProviderPort.
type mockCalendar struct {
	busy      []*out.TimePeriod
	busyErr   error
	created   *out.CalendarEvent
	upcoming  []*out.CalendarEvent
	deletedID string
}

func (m *mockCalendar) FreeBusy(ctx context.Context, req *out.FreeBusyRequest) ([]*out.TimePeriod, error) {
	return m.busy, m.busyErr
}

func (m *mockCalendar) CreateEvent(ctx context.Context, event *out.CalendarEvent) (*out.CalendarEvent, error) {
	m.created = event
	created := *event
	created.ID = "evt-1"
	created.HTMLLink = "https://calendar.example.com/evt-1"
	return &created, nil
}

func (m *mockCalendar) ListUpcoming(ctx context.Context, max int) ([]*out.CalendarEvent, error) {
	if max < len(m.upcoming) {
		return m.upcoming[:max], nil
	}
	return m.upcoming, nil
}

func (m *mockCalendar) UpdateEventTime(ctx context.Context, eventID string, start, end time.Time) (*out.CalendarEvent, error) {
	return &out.CalendarEvent{ID: eventID, Start: start, End: end, HTMLLink: "https://calendar.example.com/" + eventID}, nil
}

func (m *mockCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	m.deletedID = eventID
	return nil
}

func TestCheckAvailabilityFree(t *testing.T) {
	tool := &CheckAvailabilityTool{cal: &mockCalendar{}}

	result, err := tool.Execute(context.Background(), map[string]any{
		"start_time": "2026-09-01T10:00:00Z",
		"end_time":   "2026-09-01T11:00:00Z",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty result for a free window, got %q", result)
	}
}

func TestCheckAvailabilityBusy(t *testing.T) {
	start, _ := time.Parse(time.RFC3339, "2026-09-01T10:00:00Z")
	cal := &mockCalendar{busy: []*out.TimePeriod{{Start: start, End: start.Add(time.Hour)}}}
	tool := &CheckAvailabilityTool{cal: cal}

	result, err := tool.Execute(context.Background(), map[string]any{
		"start_time": "2026-09-01T09:00:00Z",
		"end_time":   "2026-09-01T18:00:00Z",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.HasPrefix(result, "Busy periods:") {
		t.Errorf("expected busy period listing, got %q", result)
	}
	if !strings.Contains(result, "2026-09-01T10:00:00Z") {
		t.Errorf("expected busy start in result, got %q", result)
	}
}

func TestCheckAvailabilityZonelessTimestamp(t *testing.T) {
	tool := &CheckAvailabilityTool{cal: &mockCalendar{}}

	if _, err := tool.Execute(context.Background(), map[string]any{
		"start_time": "2026-09-01T10:00:00",
		"end_time":   "2026-09-01T11:00:00",
	}); err != nil {
		t.Errorf("expected zoneless timestamps to parse, got %v", err)
	}
}

func TestCheckAvailabilityMissingArgument(t *testing.T) {
	tool := &CheckAvailabilityTool{cal: &mockCalendar{}}

	if _, err := tool.Execute(context.Background(), map[string]any{"start_time": "2026-09-01T10:00:00Z"}); err == nil {
		t.Error("expected missing end_time to fail")
	}
}

func TestProposeSlotsLimitsAndWorkingHours(t *testing.T) {
	tool := &ProposeSlotsTool{cal: &mockCalendar{}, workStart: 9, workEnd: 18}

	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.HasPrefix(result, "Proposed available slots:") {
		t.Fatalf("expected slot proposals, got %q", result)
	}

	lines := strings.Split(strings.TrimSpace(result), "\n")[1:]
	if len(lines) == 0 || len(lines) > 3 {
		t.Fatalf("expected between 1 and 3 slots, got %d", len(lines))
	}
	for _, line := range lines {
		slot := strings.TrimPrefix(strings.Split(line, " to ")[0], "- ")
		start, err := time.Parse(time.RFC3339, slot)
		if err != nil {
			t.Fatalf("unparseable slot start %q: %v", slot, err)
		}
		if start.Hour() < 9 || start.Hour() >= 18 {
			t.Errorf("slot %s falls outside working hours", slot)
		}
		if start.Before(time.Now()) {
			t.Errorf("slot %s is in the past", slot)
		}
	}
}

func TestProposeSlotsSkipsBusyPeriods(t *testing.T) {
	// Block the next two full days.
	now := time.Now()
	cal := &mockCalendar{busy: []*out.TimePeriod{{Start: now.AddDate(0, 0, -1), End: now.AddDate(0, 0, 2)}}}
	tool := &ProposeSlotsTool{cal: cal, workStart: 9, workEnd: 18}

	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(result), "\n")[1:]
	blockEnd := now.AddDate(0, 0, 2)
	for _, line := range lines {
		slot := strings.TrimPrefix(strings.Split(line, " to ")[0], "- ")
		start, err := time.Parse(time.RFC3339, slot)
		if err != nil {
			t.Fatalf("unparseable slot start %q: %v", slot, err)
		}
		if start.Before(blockEnd) {
			t.Errorf("slot %s overlaps the blocked period", slot)
		}
	}
}

func TestScheduleParsesAttendees(t *testing.T) {
	cal := &mockCalendar{}
	tool := &ScheduleTool{cal: cal}

	result, err := tool.Execute(context.Background(), map[string]any{
		"summary":    "Sync",
		"start_time": "2026-09-01T10:00:00Z",
		"end_time":   "2026-09-01T11:00:00Z",
		"attendees":  "a@example.com, b@example.com",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.HasPrefix(result, "Event scheduled successfully. Link:") {
		t.Errorf("unexpected result: %q", result)
	}
	if len(cal.created.Attendees) != 2 {
		t.Fatalf("expected 2 attendees, got %d", len(cal.created.Attendees))
	}
	if cal.created.Attendees[1] != "b@example.com" {
		t.Errorf("expected trimmed attendee, got %q", cal.created.Attendees[1])
	}
}

func TestCancel(t *testing.T) {
	cal := &mockCalendar{}
	tool := &CancelTool{cal: cal}

	result, err := tool.Execute(context.Background(), map[string]any{"event_id": "evt-9"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "Event canceled successfully." {
		t.Errorf("unexpected result: %q", result)
	}
	if cal.deletedID != "evt-9" {
		t.Errorf("expected evt-9 deleted, got %q", cal.deletedID)
	}
}

func TestRegistryPreservesOrder(t *testing.T) {
	registry := NewCalendarRegistry(&mockCalendar{}, 9, 18)
	defs := registry.Definitions()

	wantOrder := []string{"check_availability", "propose_slots", "schedule", "list_upcoming", "reschedule", "cancel"}
	if len(defs) != len(wantOrder) {
		t.Fatalf("expected %d tool definitions, got %d", len(wantOrder), len(defs))
	}
	for i, name := range wantOrder {
		if defs[i].Name != name {
			t.Errorf("definition %d: expected %s, got %s", i, name, defs[i].Name)
		}
	}
}

func TestProviderErrorPropagates(t *testing.T) {
	cal := &mockCalendar{busyErr: errors.New("calendar unavailable")}
	tool := &CheckAvailabilityTool{cal: cal}

	if _, err := tool.Execute(context.Background(), map[string]any{
		"start_time": "2026-09-01T10:00:00Z",
		"end_time":   "2026-09-01T11:00:00Z",
	}); err == nil {
		t.Error("expected provider error to propagate")
	}
}
