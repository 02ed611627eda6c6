package composer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"assistant_server/core/domain"
)

type stubCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubCompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.prompts = append(s.prompts, userPrompt)
	return s.reply, s.err
}

func TestRecipientName(t *testing.T) {
	tests := []struct {
		sender string
		want   string
	}{
		{"Alice Smith <alice@example.com>", "Alice Smith"},
		{"Alice <alice@example.com>", "Alice"},
		{"alice@example.com", "there"},
		{"<alice@example.com>", "there"},
		{"", "there"},
	}
	for _, tt := range tests {
		if got := RecipientName(tt.sender); got != tt.want {
			t.Errorf("RecipientName(%q) = %q, want %q", tt.sender, got, tt.want)
		}
	}
}

func TestComposeBuildsPrompt(t *testing.T) {
	client := &stubCompleter{reply: "Hi Alice,\n\nHere you go.\n\nJordan"}
	c := NewComposer(client)

	body, err := c.Compose(context.Background(), Input{
		Email: domain.EmailContext{
			Sender:  "Alice <alice@example.com>",
			Subject: "Pricing",
			Body:    "Could you send the price sheet?",
		},
		UserName: "Jordan",
		Content:  "The price sheet is attached.",
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if body != "Hi Alice,\n\nHere you go.\n\nJordan" {
		t.Errorf("unexpected body: %q", body)
	}

	prompt := client.prompts[0]
	if !strings.Contains(prompt, "The price sheet is attached.") {
		t.Error("expected sub-agent content in prompt")
	}
	if !strings.Contains(prompt, `"Hi Alice,"`) {
		t.Error("expected recipient name in greeting instruction")
	}
	if !strings.Contains(prompt, "Sign the email as Jordan.") {
		t.Error("expected signing instruction")
	}
	if strings.Contains(prompt, "Examples of how") {
		t.Error("expected no tone block without a retriever")
	}
}

func TestComposeStripsThink(t *testing.T) {
	client := &stubCompleter{reply: "<think>planning</think>\nDear Alice,\n\nDone."}
	c := NewComposer(client)

	body, err := c.Compose(context.Background(), Input{
		Email:    domain.EmailContext{Sender: "Alice <alice@example.com>"},
		UserName: "Jordan",
		Content:  "x",
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if strings.Contains(body, "<think>") {
		t.Errorf("expected think block stripped, got %q", body)
	}
}

func TestComposePropagatesError(t *testing.T) {
	client := &stubCompleter{err: errors.New("model unavailable")}
	c := NewComposer(client)

	if _, err := c.Compose(context.Background(), Input{UserName: "Jordan"}); err == nil {
		t.Error("expected model error propagated")
	}
}
