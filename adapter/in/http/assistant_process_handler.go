package http

import (
	"time"

	"assistant_server/core/consent"
	"assistant_server/core/service/inbox"
	respsvc "assistant_server/core/service/response"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AssistantHandler exposes inbox summarization and the draft lifecycle.
type AssistantHandler struct {
	inbox     *inbox.Service
	responses *respsvc.Service
	consent   *consent.Manager
	providers *GoogleProviders
	kbTTL     time.Duration
}

// NewAssistantHandler creates the main processing handler.
func NewAssistantHandler(inboxSvc *inbox.Service, responses *respsvc.Service, consentMgr *consent.Manager, providers *GoogleProviders, kbTTL time.Duration) *AssistantHandler {
	return &AssistantHandler{
		inbox:     inboxSvc,
		responses: responses,
		consent:   consentMgr,
		providers: providers,
		kbTTL:     kbTTL,
	}
}

// Register registers processing routes.
func (h *AssistantHandler) Register(app *fiber.App) {
	api := app.Group("/api")
	api.Post("/summarize", h.Summarize)
	api.Post("/process-email", h.ProcessEmail)
	api.Post("/generate-kb-token", h.GenerateKBToken)
	api.Post("/response-action", h.ResponseAction)
}

// Summarize fetches and summarizes the user's recent unread mail.
// POST /api/summarize
func (h *AssistantHandler) Summarize(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}
	refresh := c.FormValue("refresh") == "true" || c.Query("refresh") == "true"

	mail, err := h.providers.Mail(c, userEmail)
	if err != nil {
		return err
	}

	summaries, err := h.inbox.Summarize(c.Context(), userEmail, mail, refresh)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"emails": summaries,
		"count":  len(summaries),
	})
}

// ProcessEmail runs the full pipeline for one summarized email and stores
// the draft as pending review. Accepts multipart form data so an optional
// document can ride along.
// POST /api/process-email
func (h *AssistantHandler) ProcessEmail(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	emailID := c.FormValue("email_id")
	if emailID == "" {
		return apperr.MissingField("email_id")
	}
	consentToken := c.FormValue("consent_token")
	if consentToken == "" {
		return apperr.MissingField("consent_token")
	}

	document, err := FormFileAttachment(c, "file")
	if err != nil {
		return err
	}

	mail, err := h.providers.Mail(c, userEmail)
	if err != nil {
		return err
	}
	calendar, err := h.providers.Calendar(c, userEmail)
	if err != nil {
		return err
	}

	record, err := h.responses.Process(c.Context(), respsvc.ProcessInput{
		UserEmail:    userEmail,
		UserName:     c.FormValue("user_name"),
		EmailID:      emailID,
		ConsentToken: consentToken,
		KBToken:      c.FormValue("kb_token"),
		Hint:         c.FormValue("hint"),
		Document:     document,
		Mail:         mail,
		Calendar:     calendar,
	})
	if err != nil {
		return err
	}
	return response.Created(c, record)
}

// GenerateKBToken issues a short-lived knowledge-base read token.
// POST /api/generate-kb-token
func (h *AssistantHandler) GenerateKBToken(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	token, err := h.consent.Issue(userEmail, consent.ScopeKnowledgeBaseRead, h.kbTTL)
	if err != nil {
		return apperr.InternalWithError(err)
	}
	return response.OK(c, fiber.Map{
		"kb_token":   token,
		"expires_in": int(h.kbTTL.Seconds()),
	})
}

// ResponseAction applies a review decision to a stored draft: approve,
// reject, or regenerate (optionally with a fresh hint and document).
// POST /api/response-action
func (h *AssistantHandler) ResponseAction(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	responseID := c.FormValue("response_id")
	if responseID == "" {
		return apperr.MissingField("response_id")
	}
	action := c.FormValue("action")
	if action == "" {
		return apperr.MissingField("action")
	}

	document, err := FormFileAttachment(c, "file")
	if err != nil {
		return err
	}

	mail, err := h.providers.Mail(c, userEmail)
	if err != nil {
		return err
	}
	calendar, err := h.providers.Calendar(c, userEmail)
	if err != nil {
		return err
	}

	record, err := h.responses.Action(c.Context(), respsvc.ActionInput{
		UserEmail:    userEmail,
		UserName:     c.FormValue("user_name"),
		ResponseID:   responseID,
		Action:       action,
		ConsentToken: c.FormValue("consent_token"),
		KBToken:      c.FormValue("kb_token"),
		Hint:         c.FormValue("hint"),
		Document:     document,
		Mail:         mail,
		Calendar:     calendar,
	})
	if err != nil {
		return err
	}
	return response.OK(c, record)
}
