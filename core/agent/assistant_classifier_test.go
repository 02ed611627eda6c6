package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"assistant_server/core/domain"
)

type stubJSONCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubJSONCompleter) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func testEmail() domain.EmailContext {
	return domain.EmailContext{
		ID:      "1",
		Sender:  "Alice <alice@example.com>",
		Subject: "Meeting tomorrow",
		Body:    "Can we meet?",
		Intent:  "Scheduling or rescheduling a meeting or event",
	}
}

func TestClassifyParsesModelAnswer(t *testing.T) {
	c := NewClassifier(&stubJSONCompleter{
		reply: `{"agent_type": "INFO_RESPONDER_AGENT", "confidence": 0.92, "reasoning": "asks a question", "suggested_action": "answer it"}`,
	})

	plan := c.Classify(context.Background(), testEmail(), nil)
	if plan.AgentKind != domain.AgentInfo {
		t.Errorf("expected INFO_RESPONDER_AGENT, got %s", plan.AgentKind)
	}
	if plan.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %f", plan.Confidence)
	}
}

func TestClassifyExtractsEmbeddedJSON(t *testing.T) {
	c := NewClassifier(&stubJSONCompleter{
		reply: `Here is my decision: {"agent_type": "SCHEDULER_AGENT", "confidence": 0.8, "reasoning": "meeting", "suggested_action": "schedule"} done.`,
	})

	plan := c.Classify(context.Background(), testEmail(), nil)
	if plan.AgentKind != domain.AgentScheduler {
		t.Errorf("expected SCHEDULER_AGENT, got %s", plan.AgentKind)
	}
}

func TestClassifyFallsBackOnError(t *testing.T) {
	c := NewClassifier(&stubJSONCompleter{err: errors.New("model unavailable")})

	plan := c.Classify(context.Background(), testEmail(), nil)
	if plan.AgentKind != domain.AgentScheduler {
		t.Errorf("expected intent fallback to SCHEDULER_AGENT, got %s", plan.AgentKind)
	}
	if plan.Confidence != 0.7 {
		t.Errorf("expected fallback confidence 0.7, got %f", plan.Confidence)
	}
	if plan.Reasoning != "Fallback based on intent: Scheduling or rescheduling a meeting or event" {
		t.Errorf("unexpected fallback reasoning: %q", plan.Reasoning)
	}
}

func TestClassifyFallsBackOnGarbage(t *testing.T) {
	c := NewClassifier(&stubJSONCompleter{reply: "I cannot decide"})

	plan := c.Classify(context.Background(), testEmail(), nil)
	if plan.AgentKind != domain.AgentScheduler {
		t.Errorf("expected intent fallback, got %s", plan.AgentKind)
	}
}

func TestClassifyFallsBackOnUnknownKind(t *testing.T) {
	c := NewClassifier(&stubJSONCompleter{
		reply: `{"agent_type": "MYSTERY_AGENT", "confidence": 0.99, "reasoning": "?", "suggested_action": "?"}`,
	})

	email := testEmail()
	email.Intent = "Marketing emails or newsletters"
	plan := c.Classify(context.Background(), email, nil)
	if plan.AgentKind != domain.AgentNoResponse {
		t.Errorf("expected fallback to NO_RESPONSE for marketing intent, got %s", plan.AgentKind)
	}
}

func TestClassifyIncludesHistory(t *testing.T) {
	stub := &stubJSONCompleter{
		reply: `{"agent_type": "INFO_RESPONDER_AGENT", "confidence": 0.9, "reasoning": "follow-up", "suggested_action": "answer"}`,
	}
	c := NewClassifier(stub)

	history := []string{"From: Alice\nSnippet: when can we expect the quote?"}
	c.Classify(context.Background(), testEmail(), history)

	prompt := stub.prompts[0]
	if !strings.Contains(prompt, "Previous messages in this thread:") {
		t.Error("expected thread history block in prompt")
	}
	if !strings.Contains(prompt, "when can we expect the quote?") {
		t.Error("expected history content in prompt")
	}
}
