package persistence

import (
	"context"
	"database/sql"

	"assistant_server/core/domain"
	"assistant_server/pkg/apperr"

	"github.com/jmoiron/sqlx"
)

// ResponseAdapter implements out.ResponseRepository using PostgreSQL.
type ResponseAdapter struct {
	db *sqlx.DB
}

// NewResponseAdapter creates a new ResponseAdapter.
func NewResponseAdapter(db *sqlx.DB) *ResponseAdapter {
	return &ResponseAdapter{db: db}
}

const responseColumns = `
	id, user_email, email_id, thread_id, sender, subject, original_body,
	response_type, message, reasoning, confidence,
	attachment_filename, attachment_content, status, created_at, updated_at
`

// Create inserts a new response record.
func (a *ResponseAdapter) Create(ctx context.Context, record *domain.ResponseRecord) error {
	const query = `
		INSERT INTO email_responses (
			id, user_email, email_id, thread_id, sender, subject, original_body,
			response_type, message, reasoning, confidence,
			attachment_filename, attachment_content, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
		)
	`

	_, err := a.db.ExecContext(ctx, query,
		record.ID, record.UserEmail, record.EmailID, record.ThreadID,
		record.Sender, record.Subject, record.OriginalBody,
		record.ResponseType, record.Message, record.Reasoning, record.Confidence,
		record.AttachmentFilename, record.AttachmentContent, record.Status)
	if err != nil {
		return apperr.DatabaseError("create response", err)
	}
	return nil
}

// GetByID retrieves one response record.
func (a *ResponseAdapter) GetByID(ctx context.Context, id string) (*domain.ResponseRecord, error) {
	query := `SELECT ` + responseColumns + ` FROM email_responses WHERE id = $1`

	var record domain.ResponseRecord
	if err := a.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("response " + id)
		}
		return nil, apperr.DatabaseError("get response", err)
	}
	return &record, nil
}

// Update overwrites the generated fields of a record.
func (a *ResponseAdapter) Update(ctx context.Context, record *domain.ResponseRecord) error {
	const query = `
		UPDATE email_responses
		SET response_type = $2, message = $3, reasoning = $4, confidence = $5,
		    attachment_filename = $6, attachment_content = $7, status = $8,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := a.db.ExecContext(ctx, query,
		record.ID, record.ResponseType, record.Message, record.Reasoning, record.Confidence,
		record.AttachmentFilename, record.AttachmentContent, record.Status)
	if err != nil {
		return apperr.DatabaseError("update response", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("response " + record.ID)
	}
	return nil
}

// UpdateStatus moves a record through the review lifecycle.
func (a *ResponseAdapter) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `
		UPDATE email_responses
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := a.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return apperr.DatabaseError("update response status", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("response " + id)
	}
	return nil
}

// ListPending returns the user's drafts awaiting review, newest first.
func (a *ResponseAdapter) ListPending(ctx context.Context, userEmail string) ([]*domain.ResponseRecord, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM email_responses
		WHERE user_email = $1 AND status = $2
		ORDER BY created_at DESC
	`

	var records []*domain.ResponseRecord
	if err := a.db.SelectContext(ctx, &records, query, userEmail, domain.ResponseStatusPending); err != nil {
		return nil, apperr.DatabaseError("list pending responses", err)
	}
	return records, nil
}

// ListHistory returns the user's reviewed drafts, newest first.
func (a *ResponseAdapter) ListHistory(ctx context.Context, userEmail string, limit int) ([]*domain.ResponseRecord, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM email_responses
		WHERE user_email = $1 AND status IN ($2, $3)
		ORDER BY updated_at DESC
		LIMIT $4
	`

	var records []*domain.ResponseRecord
	if err := a.db.SelectContext(ctx, &records, query, userEmail,
		domain.ResponseStatusApproved, domain.ResponseStatusRejected, limit); err != nil {
		return nil, apperr.DatabaseError("list response history", err)
	}
	return records, nil
}
