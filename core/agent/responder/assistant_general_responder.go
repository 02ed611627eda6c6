package responder

import (
	"context"
	"fmt"
	"strings"

	"assistant_server/core/agent/llm"
)

// generalBodyLimit caps how much of the original email is quoted into the
// prompt.
const generalBodyLimit = 500

// GeneralResponder drafts replies for emails that need no tools or
// retrieval beyond the message itself.
type GeneralResponder struct {
	llm completer
}

// NewGeneralResponder creates a general responder.
func NewGeneralResponder(client completer) *GeneralResponder {
	return &GeneralResponder{llm: client}
}

// Respond drafts reply content for a general email.
func (r *GeneralResponder) Respond(ctx context.Context, in Input) (string, error) {
	body := in.Email.Body
	if len(body) > generalBodyLimit {
		body = body[:generalBodyLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are drafting an email reply on behalf of %s.\n\n", in.UserName)
	fmt.Fprintf(&b, "From: %s\nBody:\n%s\n\n", in.Email.Sender, body)
	if len(in.History) > 0 {
		fmt.Fprintf(&b, "Previous messages in this thread:\n%s\n\n", strings.Join(in.History, "\n\n"))
	}
	if in.Hint != "" {
		fmt.Fprintf(&b, "The user's guidance for this reply: %s\n\n", in.Hint)
	}
	b.WriteString(`Write the substance of an appropriate, professional reply to this email.
Address what the sender actually said or asked.
Write only the content of the reply; greetings and signatures are added later.`)

	reply, err := r.llm.CompleteWithSystem(ctx, "You are an email assistant that drafts clear, professional replies.", b.String())
	if err != nil {
		return "", err
	}
	return llm.StripThink(reply), nil
}
