package llm

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ahmednasr/repomind/internal/models"
)

// DefaultVertexModel is used when no model is configured.
const DefaultVertexModel = "gemini-2.5-pro"

// Vertex implements Provider on Vertex AI Gemini models.
type Vertex struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewVertex creates a Vertex AI client. credentialsFile may be empty to use
// application default credentials.
func NewVertex(ctx context.Context, projectID, location, model, credentialsFile string, maxTokens int) (*Vertex, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := genai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	if model == "" {
		model = DefaultVertexModel
	}
	return &Vertex{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// chat prepares a session whose history is every message but the last, and
// returns the last message as the turn to send.
func (v *Vertex) chat(req Request) (*genai.ChatSession, genai.Part, error) {
	if len(req.Messages) == 0 {
		return nil, nil, errors.New("vertex: request has no messages")
	}

	model := v.client.GenerativeModel(v.model)
	model.SetMaxOutputTokens(int32(maxTokens(req, v.maxTokens)))
	model.SetTemperature(0.7)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	cs := model.StartChat()
	cs.History = vertexHistory(req.Messages[:len(req.Messages)-1])
	return cs, genai.Text(req.Messages[len(req.Messages)-1].Content), nil
}

// Stream pulls the response iterator and emits each text part as a delta.
func (v *Vertex) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	cs, turn, err := v.chat(req)
	if err != nil {
		return nil, err
	}
	iter := cs.SendMessageStream(ctx, turn)

	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)

		var blocks blockTracker
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				send(ctx, events, StreamEvent{Kind: EventStop})
				return
			}
			if err != nil {
				send(ctx, events, StreamEvent{Kind: EventError, Err: fmt.Errorf("vertex: %w", err)})
				return
			}
			for _, t := range responseText(resp) {
				for _, ev := range blocks.deltaEvents(0, "text_delta", t, "") {
					if !send(ctx, events, ev) {
						return
					}
				}
			}
		}
	}()
	return events, nil
}

// Complete runs a single generation.
func (v *Vertex) Complete(ctx context.Context, req Request) (string, error) {
	cs, turn, err := v.chat(req)
	if err != nil {
		return "", err
	}

	resp, err := cs.SendMessage(ctx, turn)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	parts := responseText(resp)
	if len(parts) == 0 {
		return "", fmt.Errorf("no response generated")
	}

	var text string
	for _, p := range parts {
		text += p
	}
	return text, nil
}

// Close closes the Vertex AI client
func (v *Vertex) Close() error {
	return v.client.Close()
}

func vertexHistory(msgs []models.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return out
}

// responseText returns the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var out []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok && t != "" {
			out = append(out, string(t))
		}
	}
	return out
}
