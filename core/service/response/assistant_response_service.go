// Package response runs the draft lifecycle: generation, human review,
// sending, and regeneration.
package response

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"assistant_server/core/agent"
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/core/service/inbox"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

const historyLimit = 50

// Review actions.
const (
	ActionApprove    = "approve"
	ActionReject     = "reject"
	ActionRegenerate = "regenerate"
)

// Service coordinates draft generation and the review lifecycle.
type Service struct {
	orchestrator *agent.Orchestrator
	inbox        *inbox.Service
	repo         out.ResponseRepository
	log          *logger.Logger
}

// NewService creates a response lifecycle service.
func NewService(orchestrator *agent.Orchestrator, inboxSvc *inbox.Service, repo out.ResponseRepository) *Service {
	return &Service{
		orchestrator: orchestrator,
		inbox:        inboxSvc,
		repo:         repo,
		log:          logger.Default().WithField("component", "response_service"),
	}
}

// ProcessInput is one draft-generation request.
type ProcessInput struct {
	UserEmail    string
	UserName     string
	EmailID      string
	ConsentToken string
	KBToken      string
	Hint         string
	Document     *domain.Attachment
	Mail         out.MailProviderPort
	Calendar     out.CalendarProviderPort
}

// Process generates a draft for one summarized email and stores it as
// pending review.
func (s *Service) Process(ctx context.Context, in ProcessInput) (*domain.ResponseRecord, error) {
	summary, err := s.inbox.Lookup(ctx, in.UserEmail, in.EmailID, in.Mail)
	if err != nil {
		return nil, err
	}

	var history []string
	if entries, herr := in.Mail.ThreadHistory(ctx, summary.ThreadID); herr != nil {
		s.log.WithError(herr).Warn("thread history fetch failed, proceeding without it")
	} else {
		history = inbox.FormatThreadHistory(entries)
	}

	draft, err := s.orchestrator.Process(ctx, agent.Request{
		Email: domain.EmailContext{
			ID:      summary.ID,
			Sender:  summary.Sender,
			Subject: summary.Subject,
			Body:    summary.Body,
			Intent:  summary.Intent,
			Summary: summary.Summary,
		},
		UserEmail:    in.UserEmail,
		UserName:     in.UserName,
		ConsentToken: in.ConsentToken,
		KBToken:      in.KBToken,
		Hint:         in.Hint,
		History:      history,
		Document:     in.Document,
		Mail:         in.Mail,
		Calendar:     in.Calendar,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &domain.ResponseRecord{
		ID:           uuid.NewString(),
		UserEmail:    in.UserEmail,
		EmailID:      summary.MessageID,
		ThreadID:     summary.ThreadID,
		Sender:       summary.Sender,
		Subject:      summary.Subject,
		OriginalBody: summary.Body,
		ResponseType: string(draft.ResponseType),
		Message:      draft.Message,
		Reasoning:    draft.Reasoning,
		Confidence:   draft.Confidence,
		Status:       domain.ResponseStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if draft.Attachment != nil {
		record.AttachmentFilename = draft.Attachment.Filename
		record.AttachmentContent = draft.Attachment.Content
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ActionInput is one review decision on a stored draft.
type ActionInput struct {
	UserEmail    string
	UserName     string
	ResponseID   string
	Action       string
	ConsentToken string
	KBToken      string
	Hint         string
	Document     *domain.Attachment
	Mail         out.MailProviderPort
	Calendar     out.CalendarProviderPort
}

// Action applies a review decision: approve sends the draft and marks the
// original read, reject archives it, regenerate reruns the pipeline with
// fresh guidance.
func (s *Service) Action(ctx context.Context, in ActionInput) (*domain.ResponseRecord, error) {
	record, err := s.repo.GetByID(ctx, in.ResponseID)
	if err != nil {
		return nil, err
	}
	if record.UserEmail != in.UserEmail {
		return nil, apperr.Forbidden("response belongs to a different user")
	}

	switch in.Action {
	case ActionApprove:
		return s.approve(ctx, record, in.Mail)
	case ActionReject:
		if err := s.repo.UpdateStatus(ctx, record.ID, domain.ResponseStatusRejected); err != nil {
			return nil, err
		}
		record.Status = domain.ResponseStatusRejected
		return record, nil
	case ActionRegenerate:
		return s.regenerate(ctx, record, in)
	default:
		return nil, apperr.BadRequest("unknown action: " + in.Action)
	}
}

func (s *Service) approve(ctx context.Context, record *domain.ResponseRecord, mailProvider out.MailProviderPort) (*domain.ResponseRecord, error) {
	req := &out.SendRequest{
		To:       senderAddress(record.Sender),
		Subject:  replySubject(record.Subject),
		Body:     record.Message,
		ThreadID: record.ThreadID,
	}
	if record.AttachmentFilename != "" {
		req.AttachmentName = record.AttachmentFilename
		req.AttachmentContent = record.AttachmentContent
	}

	if err := mailProvider.Send(ctx, req); err != nil {
		return nil, apperr.ProviderFailure("gmail", err)
	}
	if err := mailProvider.MarkRead(ctx, record.EmailID); err != nil {
		s.log.WithError(err).Warn("failed to mark original email as read")
	}

	if err := s.repo.UpdateStatus(ctx, record.ID, domain.ResponseStatusApproved); err != nil {
		return nil, err
	}
	record.Status = domain.ResponseStatusApproved
	return record, nil
}

func (s *Service) regenerate(ctx context.Context, record *domain.ResponseRecord, in ActionInput) (*domain.ResponseRecord, error) {
	draft, err := s.orchestrator.Process(ctx, agent.Request{
		Email: domain.EmailContext{
			ID:      inbox.EmailIDHash(record.Sender + record.Subject),
			Sender:  record.Sender,
			Subject: record.Subject,
			Body:    record.OriginalBody,
		},
		UserEmail:    in.UserEmail,
		UserName:     in.UserName,
		ConsentToken: in.ConsentToken,
		KBToken:      in.KBToken,
		Hint:         in.Hint,
		Document:     in.Document,
		Mail:         in.Mail,
		Calendar:     in.Calendar,
	})
	if err != nil {
		return nil, err
	}

	record.ResponseType = string(draft.ResponseType)
	record.Message = draft.Message
	record.Reasoning = draft.Reasoning
	record.Confidence = draft.Confidence
	record.AttachmentFilename = ""
	record.AttachmentContent = nil
	if draft.Attachment != nil {
		record.AttachmentFilename = draft.Attachment.Filename
		record.AttachmentContent = draft.Attachment.Content
	}
	record.Status = domain.ResponseStatusPending
	record.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Pending returns the user's drafts awaiting review, newest first.
func (s *Service) Pending(ctx context.Context, userEmail string) ([]*domain.ResponseRecord, error) {
	return s.repo.ListPending(ctx, userEmail)
}

// History returns the user's reviewed drafts, newest first.
func (s *Service) History(ctx context.Context, userEmail string) ([]*domain.ResponseRecord, error) {
	return s.repo.ListHistory(ctx, userEmail, historyLimit)
}

// senderAddress extracts the bare address from a From header.
func senderAddress(sender string) string {
	if addr, err := mail.ParseAddress(sender); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(sender)
}

// replySubject prefixes "Re:" unless the subject already has one.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		return subject
	}
	return "Re: " + subject
}
