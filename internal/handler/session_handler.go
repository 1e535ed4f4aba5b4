package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/repomind/internal/models"
	"github.com/ahmednasr/repomind/internal/service"
)

// SessionHandler exposes read and delete on stored sessions.
type SessionHandler struct {
	sessions service.SessionRepository
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions service.SessionRepository) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Register mounts GET and DELETE /sessions/:id on the supplied router group.
func (h *SessionHandler) Register(r fiber.Router) {
	r.Get("/sessions/:id", h.get)
	r.Delete("/sessions/:id", h.delete)
}

// get handles GET /sessions/:id. The context body is left out.
func (h *SessionHandler) get(c *fiber.Ctx) error {
	id := c.Params("id")
	sess, err := h.sessions.Get(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(models.SessionSummary{
		SessionID:    id,
		Metadata:     sess.Metadata,
		TokenCount:   sess.TokenCount,
		MessageCount: len(sess.Messages),
		CreatedAt:    sess.CreatedAt,
	})
}

// delete handles DELETE /sessions/:id
func (h *SessionHandler) delete(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.UserContext(), c.Params("id")); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
