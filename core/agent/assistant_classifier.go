// Package agent orchestrates the per-email response pipeline: consent
// gating, retrieval, intent classification, sub-agent routing, and
// composition.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"assistant_server/core/agent/llm"
	"assistant_server/core/domain"
	"assistant_server/pkg/logger"
)

type jsonCompleter interface {
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

// Classifier decides which agent should handle an email.
type Classifier struct {
	llm jsonCompleter
	log *logger.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(client jsonCompleter) *Classifier {
	return &Classifier{
		llm: client,
		log: logger.Default().WithField("component", "classifier"),
	}
}

// Classify produces a routing plan for the email. Never fails: when the
// model's answer cannot be parsed, the plan falls back to the static
// intent mapping.
func (c *Classifier) Classify(ctx context.Context, email domain.EmailContext, history []string) *domain.ResponsePlan {
	historyBlock := ""
	if len(history) > 0 {
		historyBlock = fmt.Sprintf("\nPrevious messages in this thread:\n%s\n", strings.Join(history, "\n\n"))
	}

	prompt := fmt.Sprintf(`Decide which agent should handle the following email.

Subject: %s
Sender: %s
Intent: %s
Summary: %s
%s
Available agents:
- SCHEDULER_AGENT: meeting scheduling, rescheduling, cancellation, interviews, event invitations
- INFO_RESPONDER_AGENT: questions, information requests, support issues, quotes, follow-ups
- GENERAL_RESPONDER: everything else that deserves a reply
- NO_RESPONSE: newsletters, FYIs, notifications that need no reply

Respond with a JSON object:
{"agent_type": "<one of the agent names>", "confidence": <0.0-1.0>, "reasoning": "<why>", "suggested_action": "<what to do>"}`,
		email.Subject, email.Sender, email.Intent, email.Summary, historyBlock)

	raw, err := c.llm.CompleteJSON(ctx, prompt)
	if err != nil {
		c.log.WithError(err).Warn("classification call failed, using intent fallback")
		return fallbackPlan(email.Intent)
	}

	payload, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return fallbackPlan(email.Intent)
	}

	var plan domain.ResponsePlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		c.log.WithError(err).Warn("classification reply unparseable, using intent fallback")
		return fallbackPlan(email.Intent)
	}
	if !validKind(plan.AgentKind) {
		return fallbackPlan(email.Intent)
	}
	return &plan
}

func validKind(kind domain.AgentKind) bool {
	switch kind {
	case domain.AgentScheduler, domain.AgentInfo, domain.AgentGeneral, domain.AgentNoResponse:
		return true
	}
	return false
}

func fallbackPlan(intent string) *domain.ResponsePlan {
	return &domain.ResponsePlan{
		AgentKind:       domain.RouteForIntent(intent),
		Confidence:      0.7,
		Reasoning:       fmt.Sprintf("Fallback based on intent: %s", intent),
		SuggestedAction: "Handle using the mapped agent",
	}
}
