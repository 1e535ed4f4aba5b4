package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/repomind/internal/models"
	"github.com/ahmednasr/repomind/internal/service"
)

// DiagramHandler wires HTTP → DiagramService.
type DiagramHandler struct {
	svc service.DiagramService
}

// NewDiagramHandler creates a new DiagramHandler.
func NewDiagramHandler(svc service.DiagramService) *DiagramHandler {
	return &DiagramHandler{svc: svc}
}

// Register mounts POST /diagram on the supplied router group.
func (h *DiagramHandler) Register(r fiber.Router) {
	r.Post("/diagram", h.diagram)
}

// diagram handles POST /diagram  { "sessionId": "...", "focus": "..." }
func (h *DiagramHandler) diagram(c *fiber.Ctx) error {
	var req models.DiagramRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if req.SessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "sessionId is required")
	}

	d, err := h.svc.Generate(c.UserContext(), req.SessionID, req.Focus)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(d)
}
