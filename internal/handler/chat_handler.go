package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/repomind/internal/llm"
	"github.com/ahmednasr/repomind/internal/models"
	"github.com/ahmednasr/repomind/internal/service"
)

// ChatHandler wires HTTP → ChatService.
type ChatHandler struct {
	svc service.ChatService
}

// NewChatHandler returns a struct pointer so you can call Register on it.
func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Register mounts the /query endpoint on the supplied router group.
func (h *ChatHandler) Register(r fiber.Router) {
	r.Post("/query", h.query)
}

// sseEvent is the JSON payload of one Server-Sent Event.
type sseEvent struct {
	Type      string `json:"type"`
	BlockType string `json:"blockType,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

func toSSE(ev llm.StreamEvent) sseEvent {
	out := sseEvent{Type: ev.Kind.String()}
	switch ev.Kind {
	case llm.EventBlockStart:
		out.BlockType = string(ev.Block)
	case llm.EventTextDelta, llm.EventThinkingDelta:
		out.Text = ev.Text
	case llm.EventError:
		out.Error = ev.Err.Error()
	}
	return out
}

// query handles POST /query  { "sessionId": "...", "query": "..." }
// and answers with a text/event-stream of sseEvent payloads.
func (h *ChatHandler) query(c *fiber.Ctx) error {
	var req models.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if req.SessionID == "" || strings.TrimSpace(req.Query) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "sessionId and query are required")
	}

	// The stream outlives this handler, so it gets its own context that the
	// writer cancels once the client is gone.
	ctx, cancel := context.WithCancel(context.Background())
	events, err := h.svc.Ask(ctx, req.SessionID, req.Query)
	if err != nil {
		cancel()
		return toHTTPError(err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-transform")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	sessionID := req.SessionID
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for ev := range events {
			if err := writeSSE(w, toSSE(ev)); err != nil {
				log.Printf("[Query Handler] client left session %s stream: %v", sessionID, err)
				return
			}
		}
	})
	return nil
}

func writeSSE(w *bufio.Writer, ev sseEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
