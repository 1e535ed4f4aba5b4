package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/ahmednasr/repomind/internal/models"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// Anthropic implements Provider on the Anthropic Messages API.
type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic creates a client for model. maxTokens <= 0 selects
// DefaultMaxTokens.
func NewAnthropic(apiKey, model string, maxTokens int) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{
		client:    anthropic.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *Anthropic) request(req Request) anthropic.MessagesRequest {
	msgs := make([]anthropic.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := anthropic.RoleUser
		if m.Role == models.RoleAssistant {
			role = anthropic.RoleAssistant
		}
		msgs = append(msgs, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
		})
	}

	r := anthropic.MessagesRequest{
		Model:     anthropic.Model(a.model),
		Messages:  msgs,
		MaxTokens: maxTokens(req, a.maxTokens),
	}
	if req.System != "" {
		r.MultiSystem = []anthropic.MessageSystemPart{{Type: "text", Text: req.System}}
	}
	if req.ThinkingBudget > 0 && req.ThinkingBudget < r.MaxTokens {
		r.Thinking = &anthropic.Thinking{
			Type:         anthropic.ThinkingTypeEnabled,
			BudgetTokens: req.ThinkingBudget,
		}
	}
	return r
}

// Stream adapts the SDK's callback streaming to a StreamEvent channel.
func (a *Anthropic) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	events := make(chan StreamEvent, 16)

	go func() {
		defer close(events)

		var blocks blockTracker
		var streamErr error

		sreq := anthropic.MessagesStreamRequest{MessagesRequest: a.request(req)}
		sreq.OnError = func(errResp anthropic.ErrorResponse) {
			streamErr = fmt.Errorf("anthropic streaming error: %s", errResp.Error.Message)
		}
		sreq.OnContentBlockDelta = func(delta anthropic.MessagesEventContentBlockDeltaData) {
			evs, err := decodeAnthropicDelta(&blocks, delta)
			if err != nil {
				log.Printf("[Anthropic] dropping undecodable delta: %v", err)
				return
			}
			for _, ev := range evs {
				if !send(ctx, events, ev) {
					return
				}
			}
		}

		_, err := a.client.CreateMessagesStream(ctx, sreq)
		if err == nil {
			err = streamErr
		}
		if err != nil {
			send(ctx, events, StreamEvent{Kind: EventError, Err: err})
			return
		}
		send(ctx, events, StreamEvent{Kind: EventStop})
	}()

	return events, nil
}

// Complete sends a non-streaming request and joins the text blocks.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := a.client.CreateMessages(ctx, a.request(req))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text += *block.Text
		}
	}
	return text, nil
}

// anthropicDelta is the wire shape of a content_block_delta event.
type anthropicDelta struct {
	Index int `json:"index"`
	Delta struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		Thinking string `json:"thinking"`
	} `json:"delta"`
}

// decodeAnthropicDelta reads the SDK delta through its JSON form so that text
// and thinking deltas are told apart by their wire type alone.
func decodeAnthropicDelta(blocks *blockTracker, delta any) ([]StreamEvent, error) {
	raw, err := json.Marshal(delta)
	if err != nil {
		return nil, err
	}
	return decodeDeltaJSON(blocks, raw)
}

func decodeDeltaJSON(blocks *blockTracker, raw []byte) ([]StreamEvent, error) {
	var d anthropicDelta
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return blocks.deltaEvents(d.Index, d.Delta.Type, d.Delta.Text, d.Delta.Thinking), nil
}
