package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/repomind/internal/llm"
	"github.com/ahmednasr/repomind/internal/models"
	"github.com/ahmednasr/repomind/internal/repository"
	"github.com/ahmednasr/repomind/internal/service"
)

type fakeIngest struct {
	refs      []string
	err       error
	deadlines []time.Time
}

func (f *fakeIngest) Ingest(ctx context.Context, reference string) (*models.IngestResult, error) {
	f.refs = append(f.refs, reference)
	if d, ok := ctx.Deadline(); ok {
		f.deadlines = append(f.deadlines, d)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.IngestResult{SessionID: "s-1", TokenCount: 42, FilesIncluded: 2, FilesTotal: 2}, nil
}

type fakeChat struct {
	events []llm.StreamEvent
	err    error
}

func (f *fakeChat) Ask(ctx context.Context, sessionID, query string) (<-chan llm.StreamEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan llm.StreamEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

type fakeDiagram struct {
	diagram *models.Diagram
	err     error
}

func (f *fakeDiagram) Generate(ctx context.Context, sessionID, focus string) (*models.Diagram, error) {
	return f.diagram, f.err
}

type fixture struct {
	app     *fiber.App
	ingest  *fakeIngest
	chat    *fakeChat
	diagram *fakeDiagram
	store   *repository.MemorySessionStore
}

func newFixture() *fixture {
	f := &fixture{
		app:     fiber.New(fiber.Config{ErrorHandler: ErrorHandler}),
		ingest:  &fakeIngest{},
		chat:    &fakeChat{},
		diagram: &fakeDiagram{},
		store:   repository.NewMemorySessionStore(),
	}
	RegisterRoutes(f.app, f.ingest, f.chat, f.diagram, f.store)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func errorBody(t *testing.T, body string) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out.Error
}

func TestIngestByURL(t *testing.T) {
	f := newFixture()
	resp, body := f.do(t, http.MethodPost, "/api/ingest", `{"url":"https://github.com/a/b"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"https://github.com/a/b"}, f.ingest.refs)

	var res models.IngestResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, "s-1", res.SessionID)
	assert.Equal(t, 42, res.TokenCount)
}

func TestIngestIsBounded(t *testing.T) {
	f := newFixture()
	start := time.Now()
	resp, _ := f.do(t, http.MethodPost, "/api/ingest", `{"url":"https://github.com/a/b"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, f.ingest.deadlines, 1)
	assert.WithinDuration(t, start.Add(IngestTimeout), f.ingest.deadlines[0], 30*time.Second)
}

func TestIngestPreloaded(t *testing.T) {
	f := newFixture()
	resp, _ := f.do(t, http.MethodPost, "/api/ingest", `{"preloaded":"react"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"https://github.com/facebook/react"}, f.ingest.refs)

	resp, body := f.do(t, http.MethodPost, "/api/ingest", `{"preloaded":"vue"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorBody(t, body), "express, nextjs, react")
	assert.Len(t, f.ingest.refs, 1)
}

func TestIngestValidation(t *testing.T) {
	f := newFixture()

	resp, body := f.do(t, http.MethodPost, "/api/ingest", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorBody(t, body), "url")

	resp, _ = f.do(t, http.MethodPost, "/api/ingest", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, f.ingest.refs)
}

func TestIngestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad", models.ErrInvalidReference), http.StatusBadRequest},
		{fmt.Errorf("%w: a/b not found or is private", models.ErrRepositoryUnavailable), http.StatusBadGateway},
		{fmt.Errorf("fetch tree: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		f := newFixture()
		f.ingest.err = tt.err
		resp, body := f.do(t, http.MethodPost, "/api/ingest", `{"url":"https://github.com/a/b"}`)
		assert.Equal(t, tt.code, resp.StatusCode, tt.err.Error())
		assert.Equal(t, tt.err.Error(), errorBody(t, body))
	}
}

func TestAliasesEndpoint(t *testing.T) {
	f := newFixture()
	resp, body := f.do(t, http.MethodGet, "/api/aliases", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"aliases":["express","nextjs","react"]}`, body)
}

func TestQueryStreamsEvents(t *testing.T) {
	f := newFixture()
	f.chat.events = []llm.StreamEvent{
		{Kind: llm.EventBlockStart, Block: llm.BlockThinking},
		{Kind: llm.EventThinkingDelta, Text: "hm"},
		{Kind: llm.EventBlockStart, Block: llm.BlockText},
		{Kind: llm.EventTextDelta, Text: "Hi"},
		{Kind: llm.EventStop},
	}

	resp, body := f.do(t, http.MethodPost, "/api/query", `{"sessionId":"s-1","query":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t,
		`data: {"type":"block_start","blockType":"thinking"}`+"\n\n"+
			`data: {"type":"thinking","text":"hm"}`+"\n\n"+
			`data: {"type":"block_start","blockType":"text"}`+"\n\n"+
			`data: {"type":"text","text":"Hi"}`+"\n\n"+
			`data: {"type":"done"}`+"\n\n",
		body)
}

func TestQueryStreamError(t *testing.T) {
	f := newFixture()
	f.chat.events = []llm.StreamEvent{{Kind: llm.EventError, Err: errors.New("overloaded")}}

	resp, body := f.do(t, http.MethodPost, "/api/query", `{"sessionId":"s-1","query":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `data: {"type":"error","error":"overloaded"}`+"\n\n", body)
}

func TestQueryErrors(t *testing.T) {
	f := newFixture()

	resp, _ := f.do(t, http.MethodPost, "/api/query", `{"sessionId":"s-1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.chat.err = fmt.Errorf("get s-1: %w", models.ErrSessionNotFound)
	resp, body := f.do(t, http.MethodPost, "/api/query", `{"sessionId":"s-1","query":"q"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, errorBody(t, body), "session not found")

	f.chat.err = service.ErrEmptyQuery
	resp, _ = f.do(t, http.MethodPost, "/api/query", `{"sessionId":"s-1","query":"q"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDiagram(t *testing.T) {
	f := newFixture()
	f.diagram.diagram = &models.Diagram{
		Title: "T",
		Nodes: []models.DiagramNode{{ID: "a", Label: "A", Type: "module"}},
		Edges: []models.DiagramEdge{},
	}

	resp, body := f.do(t, http.MethodPost, "/api/diagram", `{"sessionId":"s-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d models.Diagram
	require.NoError(t, json.Unmarshal([]byte(body), &d))
	assert.Equal(t, "T", d.Title)

	resp, _ = f.do(t, http.MethodPost, "/api/diagram", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.diagram.err = fmt.Errorf("%w: not json", models.ErrModelResponse)
	resp, _ = f.do(t, http.MethodPost, "/api/diagram", `{"sessionId":"s-1"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestSessionEndpoints(t *testing.T) {
	f := newFixture()
	sess := models.NewSession("ctx", models.RepoMetadata{Owner: "a", Name: "b"}, 9, time.Now())
	sess.Messages = []models.Message{{Role: models.RoleUser, Content: "q"}}
	id, err := f.store.Create(context.Background(), sess)
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sum models.SessionSummary
	require.NoError(t, json.Unmarshal([]byte(body), &sum))
	assert.Equal(t, id, sum.SessionID)
	assert.Equal(t, 9, sum.TokenCount)
	assert.Equal(t, 1, sum.MessageCount)
	assert.Equal(t, sess.CreatedAt, sum.CreatedAt)
	assert.NotContains(t, body, `"context"`)

	resp, _ = f.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture()

	resp, body := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","store":"connected"}`, body)

	resp, _ = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
