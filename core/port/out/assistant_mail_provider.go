// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"
	"time"
)

// =============================================================================
// Mail Provider Port (Gmail)
// =============================================================================

// MailProviderPort defines the outbound port for the user's mailbox. Each
// instance is bound to one user's OAuth token.
type MailProviderPort interface {
	// ListUnread returns unread messages received after since.
	ListUnread(ctx context.Context, since time.Time) ([]*MailMessage, error)

	// ThreadHistory returns prior messages in a thread, oldest first.
	ThreadHistory(ctx context.Context, threadID string) ([]*ThreadEntry, error)

	// ListSentBodies returns bodies of messages the user sent after since,
	// up to max messages. Used for writing-tone retrieval.
	ListSentBodies(ctx context.Context, since time.Time, max int) ([]string, error)

	// Send delivers an outgoing reply, optionally with one attachment.
	Send(ctx context.Context, req *SendRequest) error

	// MarkRead clears the unread flag on a message.
	MarkRead(ctx context.Context, messageID string) error
}

// MailMessage is one inbox message as returned by the provider.
type MailMessage struct {
	ID       string
	ThreadID string
	Sender   string
	Subject  string
	Body     string
	Snippet  string
	Received time.Time
}

// ThreadEntry is one prior message in a conversation thread.
type ThreadEntry struct {
	From    string
	Snippet string
}

// SendRequest describes an outgoing reply.
type SendRequest struct {
	To       string
	Subject  string
	Body     string
	ThreadID string

	// Optional attachment
	AttachmentName    string
	AttachmentContent []byte
}
