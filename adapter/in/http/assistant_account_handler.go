package http

import (
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	respsvc "assistant_server/core/service/response"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AccountHandler serves review queues, history, and user profile endpoints.
type AccountHandler struct {
	users     out.UserRepository
	responses *respsvc.Service
}

// NewAccountHandler creates an account handler.
func NewAccountHandler(users out.UserRepository, responses *respsvc.Service) *AccountHandler {
	return &AccountHandler{users: users, responses: responses}
}

// Register registers account routes.
func (h *AccountHandler) Register(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/pending-responses", h.PendingResponses)
	api.Get("/response-history", h.ResponseHistory)
	api.Get("/user-details", h.UserDetails)
	api.Post("/update-settings", h.UpdateSettings)
}

// PendingResponses returns drafts awaiting review, newest first.
// GET /api/pending-responses
func (h *AccountHandler) PendingResponses(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	records, err := h.responses.Pending(c.Context(), userEmail)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"responses": records,
		"count":     len(records),
	})
}

// ResponseHistory returns reviewed drafts, newest first.
// GET /api/response-history
func (h *AccountHandler) ResponseHistory(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	records, err := h.responses.History(c.Context(), userEmail)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"responses": records,
		"count":     len(records),
	})
}

// UserDetails returns the user's profile.
// GET /api/user-details
func (h *AccountHandler) UserDetails(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByEmail(c.Context(), userEmail)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"linkedin":      user.LinkedIn,
		"github":        user.GitHub,
		"google_linked": len(user.GoogleToken) > 0,
	})
}

// UpdateSettingsRequest carries editable profile fields.
type UpdateSettingsRequest struct {
	UserEmail string `json:"user_email"`
	Name      string `json:"name"`
	LinkedIn  string `json:"linkedin"`
	GitHub    string `json:"github"`
}

// UpdateSettings updates the user's editable profile fields.
// POST /api/update-settings
func (h *AccountHandler) UpdateSettings(c *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.UserEmail == "" {
		return apperr.MissingField("user_email")
	}
	if req.Name == "" {
		return apperr.MissingField("name")
	}

	settings := &domain.UserSettings{
		Name:     req.Name,
		LinkedIn: req.LinkedIn,
		GitHub:   req.GitHub,
	}
	if err := h.users.UpdateSettings(c.Context(), req.UserEmail, settings); err != nil {
		return err
	}
	return response.OK(c, settings)
}
