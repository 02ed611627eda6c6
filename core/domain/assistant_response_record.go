package domain

import "time"

// ============================================================================
// RESPONSE RECORD MODEL
// ============================================================================

// Response lifecycle statuses.
const (
	ResponseStatusPending  = "pending"
	ResponseStatusApproved = "approved"
	ResponseStatusRejected = "rejected"
)

// ResponseRecord is a generated draft awaiting (or past) human review.
type ResponseRecord struct {
	ID                 string    `json:"id" db:"id"`
	UserEmail          string    `json:"user_email" db:"user_email"`
	EmailID            string    `json:"email_id" db:"email_id"`
	ThreadID           string    `json:"thread_id" db:"thread_id"`
	Sender             string    `json:"sender" db:"sender"`
	Subject            string    `json:"subject" db:"subject"`
	OriginalBody       string    `json:"original_body" db:"original_body"`
	ResponseType       string    `json:"response_type" db:"response_type"`
	Message            string    `json:"message" db:"message"`
	Reasoning          string    `json:"reasoning" db:"reasoning"`
	Confidence         float64   `json:"confidence" db:"confidence"`
	AttachmentFilename string    `json:"attachment_filename,omitempty" db:"attachment_filename"`
	AttachmentContent  []byte    `json:"-" db:"attachment_content"`
	Status             string    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
