package domain

import "time"

// ============================================================================
// EMAIL DOMAIN MODEL
// ============================================================================

// EmailContext carries everything the orchestration pipeline needs to know
// about a single incoming email.
type EmailContext struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Intent  string `json:"intent"`
	Summary string `json:"summary"`
}

// ThreadMessage is one prior message in the email's conversation thread.
type ThreadMessage struct {
	From    string `json:"from"`
	Snippet string `json:"snippet"`
}

// EmailSummary is the summarized view of one inbox message. ID is a stable
// hash presented to clients; MessageID is the provider's own identifier.
type EmailSummary struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Summary   string    `json:"summary"`
	Intent    string    `json:"intent"`
	Received  time.Time `json:"received"`
}
