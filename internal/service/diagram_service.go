package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/ahmednasr/repomind/internal/llm"
	"github.com/ahmednasr/repomind/internal/metrics"
	"github.com/ahmednasr/repomind/internal/models"
)

// DiagramService asks the model for an architecture diagram of a session's
// repository.
type DiagramService interface {
	Generate(ctx context.Context, sessionID, focus string) (*models.Diagram, error)
}

// DefaultDiagramThinkingBudget is the reasoning token allowance for diagrams.
const DefaultDiagramThinkingBudget = 8000

type diagramService struct {
	sessions       SessionRepository
	provider       llm.Provider
	thinkingBudget int
}

// NewDiagramService wires dependencies and returns DiagramService.
// thinkingBudget <= 0 turns extended thinking off.
func NewDiagramService(sessions SessionRepository, provider llm.Provider, thinkingBudget int) DiagramService {
	return &diagramService{sessions: sessions, provider: provider, thinkingBudget: thinkingBudget}
}

func (s *diagramService) Generate(ctx context.Context, sessionID, focus string) (*models.Diagram, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	text, err := s.provider.Complete(ctx, llm.Request{
		System: llm.WithContext(llm.DiagramPrompt, sess.Context),
		Messages: []models.Message{
			{Role: models.RoleUser, Content: llm.DiagramInstruction(strings.TrimSpace(focus))},
		},
		ThinkingBudget: s.thinkingBudget,
	})
	if err != nil {
		metrics.RecordQuery("diagram", "error")
		return nil, fmt.Errorf("%w: %w", models.ErrModelResponse, err)
	}

	diagram, err := ParseDiagram(text)
	if err != nil {
		log.Printf("[Diagram Service] unusable diagram for session %s: %v", sessionID, err)
		metrics.RecordQuery("diagram", "error")
		return nil, err
	}
	metrics.RecordQuery("diagram", "success")
	return diagram, nil
}

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ParseDiagram decodes a model reply into a Diagram. The reply may be wrapped
// in a Markdown code fence. Edges that point at unknown node ids are dropped.
func ParseDiagram(text string) (*models.Diagram, error) {
	body := strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}
	if body == "" {
		return nil, fmt.Errorf("%w: empty diagram", models.ErrModelResponse)
	}

	var d models.Diagram
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, fmt.Errorf("%w: diagram is not valid JSON: %w", models.ErrModelResponse, err)
	}

	ids := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		ids[n.ID] = struct{}{}
	}
	edges := make([]models.DiagramEdge, 0, len(d.Edges))
	for _, e := range d.Edges {
		_, src := ids[e.Source]
		_, dst := ids[e.Target]
		if src && dst {
			edges = append(edges, e)
		}
	}
	d.Edges = edges
	if d.Nodes == nil {
		d.Nodes = []models.DiagramNode{}
	}
	return &d, nil
}
