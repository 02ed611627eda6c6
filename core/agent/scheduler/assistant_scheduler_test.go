package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"assistant_server/core/agent/llm"
	"assistant_server/core/agent/tools"
	"assistant_server/core/domain"
)

// scriptedLLM replays a fixed sequence of (content, calls) turns.
type scriptedLLM struct {
	turns []scriptedTurn
	seen  [][]llm.Message
	calls int
}

type scriptedTurn struct {
	content string
	calls   []tools.ToolCall
	err     error
}

func (s *scriptedLLM) CompleteConversation(ctx context.Context, systemPrompt string, msgs []llm.Message, defs []tools.ToolDefinition) (string, []tools.ToolCall, error) {
	copied := make([]llm.Message, len(msgs))
	copy(copied, msgs)
	s.seen = append(s.seen, copied)

	turn := s.turns[len(s.turns)-1]
	if s.calls < len(s.turns) {
		turn = s.turns[s.calls]
	}
	s.calls++
	return turn.content, turn.calls, turn.err
}

// echoTool records executions and returns a canned result.
type echoTool struct {
	name   string
	result string
	err    error
	execs  int
}

func (t *echoTool) Name() string                   { return t.name }
func (t *echoTool) Description() string            { return "test tool" }
func (t *echoTool) Category() tools.ToolCategory   { return tools.CategoryCalendar }
func (t *echoTool) Parameters() []tools.ParameterSpec { return nil }
func (t *echoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	t.execs++
	return t.result, t.err
}

func testInput(registry *tools.Registry) Input {
	return Input{
		Email: domain.EmailContext{
			ID:     "42",
			Sender: "Alice <alice@example.com>",
			Body:   "Can we meet tomorrow at 3pm?",
		},
		UserEmail: "user@example.com",
		UserName:  "Jordan",
		Registry:  registry,
	}
}

func TestRunCompletesAfterToolCall(t *testing.T) {
	check := &echoTool{name: "check_availability", result: "Busy periods:\n- x to y"}
	registry := tools.NewRegistry(check)

	client := &scriptedLLM{turns: []scriptedTurn{
		{content: "", calls: []tools.ToolCall{{ID: "c1", Name: "check_availability", Args: map[string]any{}}}},
		{content: "You are busy; I proposed alternatives."},
	}}
	agent := NewAgent(client, 10)

	result, err := agent.Run(context.Background(), testInput(registry))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result != "You are busy; I proposed alternatives." {
		t.Errorf("unexpected result: %q", result)
	}
	if check.execs != 1 {
		t.Errorf("expected 1 tool execution, got %d", check.execs)
	}
}

func TestRunNormalizesEmptyToolResult(t *testing.T) {
	check := &echoTool{name: "check_availability", result: ""}
	registry := tools.NewRegistry(check)

	client := &scriptedLLM{turns: []scriptedTurn{
		{calls: []tools.ToolCall{{ID: "c1", Name: "check_availability"}}},
		{content: "done"},
	}}
	agent := NewAgent(client, 10)

	if _, err := agent.Run(context.Background(), testInput(registry)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The second turn's conversation must contain the normalized tool result.
	second := client.seen[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool {
		t.Fatalf("expected trailing tool message, got role %s", last.Role)
	}
	if last.Content != "No conflicts found - user is available during requested time" {
		t.Errorf("expected normalized empty result, got %q", last.Content)
	}
}

func TestRunSurfacesToolErrorAsOutput(t *testing.T) {
	broken := &echoTool{name: "schedule", err: errors.New("calendar rejected event")}
	registry := tools.NewRegistry(broken)

	client := &scriptedLLM{turns: []scriptedTurn{
		{calls: []tools.ToolCall{{ID: "c1", Name: "schedule"}}},
		{content: "could not schedule"},
	}}
	agent := NewAgent(client, 10)

	if _, err := agent.Run(context.Background(), testInput(registry)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	second := client.seen[1]
	last := second[len(second)-1]
	if !strings.HasPrefix(last.Content, "Error executing schedule:") {
		t.Errorf("expected tool error surfaced to model, got %q", last.Content)
	}
}

func TestRunUnknownTool(t *testing.T) {
	registry := tools.NewRegistry()

	client := &scriptedLLM{turns: []scriptedTurn{
		{calls: []tools.ToolCall{{ID: "c1", Name: "nonexistent"}}},
		{content: "ok"},
	}}
	agent := NewAgent(client, 10)

	if _, err := agent.Run(context.Background(), testInput(registry)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	second := client.seen[1]
	last := second[len(second)-1]
	if last.Content != "Error executing nonexistent: unknown tool" {
		t.Errorf("unexpected unknown-tool output: %q", last.Content)
	}
}

func TestRunHitsTurnCap(t *testing.T) {
	check := &echoTool{name: "check_availability", result: "still busy"}
	registry := tools.NewRegistry(check)

	// Always request another tool call; the loop must stop at the cap.
	client := &scriptedLLM{turns: []scriptedTurn{
		{content: "working on it", calls: []tools.ToolCall{{ID: "c1", Name: "check_availability"}}},
	}}
	agent := NewAgent(client, 3)

	result, err := agent.Run(context.Background(), testInput(registry))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("expected 3 model calls, got %d", client.calls)
	}
	if result != "working on it" {
		t.Errorf("expected last content at cap, got %q", result)
	}
}

func TestWindowNeverStartsOnToolMessage(t *testing.T) {
	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "start"},
		{Role: llm.RoleAssistant, ToolCalls: []tools.ToolCall{{ID: "c1"}}},
		{Role: llm.RoleTool, Content: "r1", ToolCallID: "c1"},
		{Role: llm.RoleAssistant, ToolCalls: []tools.ToolCall{{ID: "c2"}}},
		{Role: llm.RoleTool, Content: "r2", ToolCallID: "c2"},
		{Role: llm.RoleTool, Content: "r3", ToolCallID: "c3"},
		{Role: llm.RoleAssistant, Content: "almost"},
	}

	got := window(msgs)
	if got[0].Role == llm.RoleTool {
		t.Error("window must not start on a tool result")
	}
	if len(got) > len(msgs) {
		t.Errorf("window longer than input: %d", len(got))
	}
}

func TestWindowShortConversationUnchanged(t *testing.T) {
	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "start"},
		{Role: llm.RoleAssistant, Content: "done"},
	}
	got := window(msgs)
	if len(got) != 2 {
		t.Errorf("expected unchanged conversation, got %d messages", len(got))
	}
}

func TestRunIncludesHint(t *testing.T) {
	registry := tools.NewRegistry()
	client := &scriptedLLM{turns: []scriptedTurn{{content: "done"}}}
	agent := NewAgent(client, 10)

	in := testInput(registry)
	in.Hint = "prefer mornings"
	if _, err := agent.Run(context.Background(), in); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	first := client.seen[0]
	want := fmt.Sprintf("Email from %s:\n%s\n[User suggestion: prefer mornings]", in.Email.Sender, in.Email.Body)
	if first[0].Content != want {
		t.Errorf("unexpected initial message:\n%q\nwant:\n%q", first[0].Content, want)
	}
}
