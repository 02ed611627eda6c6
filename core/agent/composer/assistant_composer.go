// Package composer turns agent output into a finished email body in the
// user's voice.
package composer

import (
	"context"
	"fmt"
	"strings"

	"assistant_server/core/agent/llm"
	"assistant_server/core/agent/rag"
	"assistant_server/core/domain"
	"assistant_server/pkg/logger"
)

type completer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Composer writes the final reply body from sub-agent content.
type Composer struct {
	llm completer
	log *logger.Logger
}

// Input is one composition request.
type Input struct {
	Email    domain.EmailContext
	UserName string
	Content  string
	Tone     *rag.Retriever
}

// NewComposer creates a composer.
func NewComposer(client completer) *Composer {
	return &Composer{
		llm: client,
		log: logger.Default().WithField("component", "composer"),
	}
}

// RecipientName extracts a greeting name from an email sender header.
// Falls back to "there" when only an address is available.
func RecipientName(sender string) string {
	name := strings.TrimSpace(strings.Split(sender, "<")[0])
	if name == "" || strings.Contains(name, "@") {
		return "there"
	}
	return name
}

// Compose produces the final email body.
func (c *Composer) Compose(ctx context.Context, in Input) (string, error) {
	recipient := RecipientName(in.Email.Sender)
	toneContext := c.toneContext(ctx, in)

	var b strings.Builder
	b.WriteString("Contextual information for the reply:\n")
	b.WriteString(in.Content)
	b.WriteString("\n\n")

	if toneContext != "" {
		fmt.Fprintf(&b, "Examples of how %s writes emails:\n%s\n\n", in.UserName, toneContext)
	}

	fmt.Fprintf(&b, "Original email details:\nFrom: %s\nSubject: %s\nBody:\n%s\n\n",
		in.Email.Sender, in.Email.Subject, in.Email.Body)

	fmt.Fprintf(&b, `Instructions:
1. Begin the email with an appropriate greeting such as "Dear %s," or "Hi %s,".
2. Write a complete, professional response based on the contextual information above.
3. Sign the email as %s.

GIVE YOUR RESPONSE ONLY THE BODY OF THE EMAIL AND NOTHING ELSE.`,
		recipient, recipient, in.UserName)

	reply, err := c.llm.CompleteWithSystem(ctx,
		"You compose polished email replies in the user's personal writing style.", b.String())
	if err != nil {
		return "", err
	}
	return llm.StripThink(reply), nil
}

// toneContext retrieves recent sent-mail excerpts that match this email's
// topic, so the reply picks up the user's register.
func (c *Composer) toneContext(ctx context.Context, in Input) string {
	if in.Tone == nil {
		return ""
	}
	chunks, err := in.Tone.Retrieve(ctx, in.Email.Subject+"\n"+in.Email.Body)
	if err != nil {
		c.log.WithError(err).Warn("tone retrieval failed")
		return ""
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Text)
	}
	return strings.Join(parts, "\n---\n")
}
