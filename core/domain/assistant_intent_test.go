package domain

import "testing"

func TestRouteForIntent(t *testing.T) {
	tests := []struct {
		intent string
		want   AgentKind
	}{
		{"Scheduling or rescheduling a meeting or event", AgentScheduler},
		{"Scheduling or confirming a job interview", AgentScheduler},
		{"Requesting information or clarification", AgentInfo},
		{"Reporting a bug or product issue", AgentInfo},
		{"Marketing emails or newsletters", AgentNoResponse},
		{"Informational only – no action required (FYI)", AgentNoResponse},
		{"Thank you note or congratulatory message", AgentGeneral},
		{"something the summarizer never emits", AgentGeneral},
		{"", AgentGeneral},
	}

	for _, tt := range tests {
		if got := RouteForIntent(tt.intent); got != tt.want {
			t.Errorf("RouteForIntent(%q) = %s, want %s", tt.intent, got, tt.want)
		}
	}
}

func TestKnownIntentsStableOrder(t *testing.T) {
	first := KnownIntents()
	second := KnownIntents()

	if len(first) != 26 {
		t.Fatalf("expected 26 intents, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("intent order changed between calls at index %d", i)
		}
	}
	if first[0] != "Scheduling or rescheduling a meeting or event" {
		t.Errorf("unexpected first intent: %s", first[0])
	}
}

func TestResponseTypeForKind(t *testing.T) {
	tests := []struct {
		kind AgentKind
		want ResponseType
	}{
		{AgentScheduler, ResponseTypeScheduler},
		{AgentInfo, ResponseTypeInfoResponder},
		{AgentGeneral, ResponseTypeGeneralResponder},
		{AgentNoResponse, ResponseTypeNoResponse},
		{AgentKind("bogus"), ResponseTypeGeneralResponder},
	}

	for _, tt := range tests {
		if got := ResponseTypeForKind(tt.kind); got != tt.want {
			t.Errorf("ResponseTypeForKind(%s) = %s, want %s", tt.kind, got, tt.want)
		}
	}
}
