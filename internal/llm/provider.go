// Package llm adapts hosted language models to one streaming interface.
//
// Provider payloads are decoded into StreamEvent inside each adapter; nothing
// outside this package sees provider event type strings.
package llm

import (
	"context"

	"github.com/ahmednasr/repomind/internal/models"
)

// DefaultMaxTokens caps a single answer when the request leaves it unset.
const DefaultMaxTokens = 16000

// Request is one model call: a system prompt plus a conversation that ends
// with a user turn.
type Request struct {
	System    string
	Messages  []models.Message
	MaxTokens int
	// ThinkingBudget enables extended thinking with this many reasoning
	// tokens. Ignored when <= 0 or not below the max tokens, and by backends
	// without a thinking budget (Vertex).
	ThinkingBudget int
}

// Provider is a language model backend.
type Provider interface {
	// Stream starts a generation. The returned channel ends with exactly one
	// EventStop or EventError. A non-nil error means nothing was started.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
	// Complete runs a generation to the end and returns the answer text.
	Complete(ctx context.Context, req Request) (string, error)
}

func maxTokens(req Request, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultMaxTokens
}
