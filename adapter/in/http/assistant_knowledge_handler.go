package http

import (
	"assistant_server/core/service/knowledge"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// KnowledgeHandler manages the per-user knowledge base files.
type KnowledgeHandler struct {
	knowledge *knowledge.Service
}

// NewKnowledgeHandler creates a knowledge base handler.
func NewKnowledgeHandler(svc *knowledge.Service) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: svc}
}

// Register registers knowledge base routes.
func (h *KnowledgeHandler) Register(app *fiber.App) {
	kb := app.Group("/api/knowledge-base")
	kb.Get("/", h.List)
	kb.Post("/", h.Upload)
	kb.Delete("/:filename", h.Delete)
}

// List returns the user's stored files.
// GET /api/knowledge-base
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	files, err := h.knowledge.ListFiles(userEmail)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"files": files,
		"count": len(files),
	})
}

// Upload stores one multipart file in the user's knowledge base. Duplicate
// filenames are rejected with 409.
// POST /api/knowledge-base
func (h *KnowledgeHandler) Upload(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	attachment, err := FormFileAttachment(c, "file")
	if err != nil {
		return err
	}
	if attachment == nil {
		return apperr.MissingField("file")
	}

	if err := h.knowledge.SaveFile(userEmail, attachment.Filename, attachment.Content); err != nil {
		return err
	}
	return response.Created(c, fiber.Map{
		"filename": knowledge.SecureFilename(attachment.Filename),
	})
}

// Delete removes one stored file.
// DELETE /api/knowledge-base/:filename
func (h *KnowledgeHandler) Delete(c *fiber.Ctx) error {
	userEmail, err := UserEmail(c)
	if err != nil {
		return err
	}

	filename := c.Params("filename")
	if filename == "" {
		return apperr.MissingField("filename")
	}

	if err := h.knowledge.DeleteFile(userEmail, filename); err != nil {
		return err
	}
	return response.NoContent(c)
}
