package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/repomind/internal/models"
	"github.com/ahmednasr/repomind/internal/service"
)

// IngestTimeout bounds one ingestion, acquisition and storage included.
const IngestTimeout = 3 * time.Minute

// IngestHandler wires HTTP → IngestService.
type IngestHandler struct {
	svc service.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(svc service.IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

// Register mounts POST /ingest and GET /aliases on the supplied router group.
func (h *IngestHandler) Register(r fiber.Router) {
	r.Post("/ingest", h.ingest)
	r.Get("/aliases", h.aliases)
}

// ingest handles POST /ingest  { "url": "..." } | { "preloaded": "express" } | { "reference": "..." }
func (h *IngestHandler) ingest(c *fiber.Ctx) error {
	var req models.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	var reference string
	switch {
	case strings.TrimSpace(req.Preloaded) != "":
		url, err := service.ResolveAlias(req.Preloaded)
		if err != nil {
			return toHTTPError(err)
		}
		reference = url
	case strings.TrimSpace(req.URL) != "":
		reference = req.URL
	case strings.TrimSpace(req.Reference) != "":
		reference = req.Reference
	default:
		return fiber.NewError(fiber.StatusBadRequest, "must provide either 'url' or 'preloaded'")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), IngestTimeout)
	defer cancel()

	res, err := h.svc.Ingest(ctx, reference)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(res)
}

// aliases handles GET /aliases
func (h *IngestHandler) aliases(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"aliases": service.Aliases()})
}
