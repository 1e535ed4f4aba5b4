package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/repomind/internal/llm"
	"github.com/ahmednasr/repomind/internal/models"
	"github.com/ahmednasr/repomind/internal/repository"
)

const diagramJSON = `{
  "title": "Widget",
  "description": "Top level layout",
  "nodes": [
    {"id": "api", "label": "API", "type": "module", "description": "HTTP layer"},
    {"id": "store", "label": "Store", "type": "module", "description": "Persistence", "filePath": "store.go"}
  ],
  "edges": [
    {"source": "api", "target": "store", "label": "reads", "type": "uses"},
    {"source": "api", "target": "ghost", "type": "imports"}
  ]
}`

func TestParseDiagram(t *testing.T) {
	for name, text := range map[string]string{
		"bare":        diagramJSON,
		"json fence":  "```json\n" + diagramJSON + "\n```",
		"plain fence": "Here you go:\n```\n" + diagramJSON + "\n```\nDone.",
	} {
		t.Run(name, func(t *testing.T) {
			d, err := ParseDiagram(text)
			require.NoError(t, err)
			assert.Equal(t, "Widget", d.Title)
			require.Len(t, d.Nodes, 2)
			assert.Equal(t, "store.go", d.Nodes[1].FilePath)
			require.Len(t, d.Edges, 1)
			assert.Equal(t, "store", d.Edges[0].Target)
		})
	}
}

func TestParseDiagramInvalid(t *testing.T) {
	for _, text := range []string{"", "```json\n```", "not json", `{"nodes": "x"}`} {
		_, err := ParseDiagram(text)
		assert.ErrorIs(t, err, models.ErrModelResponse, text)
	}
}

func TestGenerate(t *testing.T) {
	store := repository.NewMemorySessionStore()
	id := seedSession(t, store)
	provider := &fakeProvider{complete: diagramJSON}
	svc := NewDiagramService(store, provider, DefaultDiagramThinkingBudget)

	d, err := svc.Generate(context.Background(), id, "storage")
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 2)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, llm.WithContext(llm.DiagramPrompt, "# Repository: acme/widget"), req.System)
	assert.Equal(t, "Generate an architecture diagram focused on: storage", req.Messages[0].Content)
	assert.Equal(t, DefaultDiagramThinkingBudget, req.ThinkingBudget)

	sess, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
}

func TestGenerateErrors(t *testing.T) {
	store := repository.NewMemorySessionStore()
	id := seedSession(t, store)

	_, err := NewDiagramService(store, &fakeProvider{}, DefaultDiagramThinkingBudget).Generate(context.Background(), "missing", "")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	_, err = NewDiagramService(store, &fakeProvider{err: errors.New("timeout")}, DefaultDiagramThinkingBudget).Generate(context.Background(), id, "")
	assert.ErrorIs(t, err, models.ErrModelResponse)
}
