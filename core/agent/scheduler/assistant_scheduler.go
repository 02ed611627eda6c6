// Package scheduler runs the tool-calling conversation that handles
// meeting requests against the user's calendar.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"assistant_server/core/agent/llm"
	"assistant_server/core/agent/tools"
	"assistant_server/core/domain"
	"assistant_server/pkg/logger"
)

// messageWindow is how many trailing conversation messages are replayed to
// the model each turn.
const messageWindow = 5

// emptyToolResult is substituted when a tool returns no output, so the model
// never sees a blank tool message.
const emptyToolResult = "No conflicts found - user is available during requested time"

type toolLLM interface {
	CompleteConversation(ctx context.Context, systemPrompt string, msgs []llm.Message, toolDefs []tools.ToolDefinition) (string, []tools.ToolCall, error)
}

// Agent drives the scheduling conversation for one email.
type Agent struct {
	llm      toolLLM
	maxTurns int
	log      *logger.Logger
}

// Input is everything one scheduling run needs.
type Input struct {
	Email     domain.EmailContext
	UserEmail string
	UserName  string
	Hint      string
	Registry  *tools.Registry
}

// NewAgent creates a scheduling agent.
func NewAgent(client toolLLM, maxTurns int) *Agent {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Agent{
		llm:      client,
		maxTurns: maxTurns,
		log:      logger.Default().WithField("component", "scheduler_agent"),
	}
}

// Run executes the tool loop and returns the agent's scheduling summary.
// The loop ends when the model answers without requesting tools, or when
// the turn cap is reached.
func (a *Agent) Run(ctx context.Context, in Input) (string, error) {
	defs := in.Registry.Definitions()
	system := a.systemPrompt(in)

	initial := fmt.Sprintf("Email from %s:\n%s", in.Email.Sender, in.Email.Body)
	if in.Hint != "" {
		initial += fmt.Sprintf("\n[User suggestion: %s]", in.Hint)
	}
	messages := []llm.Message{{Role: llm.RoleUser, Content: initial}}

	var lastContent string
	for turn := 0; turn < a.maxTurns; turn++ {
		content, calls, err := a.llm.CompleteConversation(ctx, system, window(messages), defs)
		if err != nil {
			return "", err
		}
		lastContent = content

		if len(calls) == 0 {
			return content, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   content,
			ToolCalls: calls,
		})

		for _, call := range calls {
			result := a.dispatch(ctx, in.Registry, call)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	a.log.WithField("email_id", in.Email.ID).Warn("scheduling loop hit turn cap")
	if lastContent != "" {
		return lastContent, nil
	}
	return "Unable to complete scheduling within the allowed number of steps.", nil
}

// dispatch executes one tool call. Failures are surfaced to the model as
// tool output rather than aborting the loop.
func (a *Agent) dispatch(ctx context.Context, registry *tools.Registry, call tools.ToolCall) string {
	tool, ok := registry.Get(call.Name)
	if !ok {
		return fmt.Sprintf("Error executing %s: unknown tool", call.Name)
	}

	result, err := tool.Execute(ctx, call.Args)
	if err != nil {
		a.log.WithError(err).WithField("tool", call.Name).Warn("tool execution failed")
		return fmt.Sprintf("Error executing %s: %v", call.Name, err)
	}
	if result == "" {
		return emptyToolResult
	}
	return result
}

func (a *Agent) systemPrompt(in Input) string {
	now := time.Now()
	return fmt.Sprintf(`You are a scheduling assistant managing the calendar of %s (%s).
Today's date is %s. Tomorrow's date is %s.
You are handling a meeting-related email from %s.

You are only concerned with the availability of the signed-in user, not the sender.

Follow this protocol:
1. Use check_availability to check whether the user is free at the requested time.
2. If the user is available, use schedule to book the meeting and invite the sender.
3. If the user is busy, use propose_slots to find alternatives and suggest them instead.

If the user provides a suggestion to change the meeting time, you must first find the existing event and cancel it before scheduling the new one.

When you are done, reply with a short summary of what you did and what should be communicated back to the sender. Do not write the reply email itself.`,
		in.UserName, in.UserEmail,
		now.Format("Monday, January 2, 2006"),
		now.AddDate(0, 0, 1).Format("Monday, January 2, 2006"),
		in.Email.Sender)
}

// window returns the trailing portion of the conversation replayed each
// turn, keeping tool results paired with the call that produced them.
func window(messages []llm.Message) []llm.Message {
	if len(messages) <= messageWindow {
		return messages
	}
	start := len(messages) - messageWindow
	// Never start on an orphaned tool result.
	for start > 0 && messages[start].Role == llm.RoleTool {
		start--
	}
	return messages[start:]
}
