package github

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"full_name":"acme/widget","default_branch":"trunk"}`))
	})
	mux.HandleFunc("/repos/acme/widget/git/trees/trunk", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		w.Write([]byte(`{"sha":"abc","truncated":false,"tree":[
			{"path":"README.md","type":"blob","size":5},
			{"path":"src","type":"tree"},
			{"path":"src/main.go","type":"blob","size":12}
		]}`))
	})
	mux.HandleFunc("/repos/acme/widget/contents/src/main.go", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trunk", r.URL.Query().Get("ref"))
		enc := base64.StdEncoding.EncodeToString([]byte("package main"))
		// GitHub wraps base64 at 60 columns
		w.Write([]byte(`{"type":"file","encoding":"base64","content":"` + enc[:8] + `\n` + enc[8:] + `"}`))
	})
	mux.HandleFunc("/repos/acme/widget/contents/src", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"dir"}`))
	})
	mux.HandleFunc("/repos/acme/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientGetRepository(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("tok", WithBaseURL(srv.URL+"/"))

	repo, err := c.GetRepository(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, "trunk", repo.DefaultBranch)
}

func TestClientNotFound(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("tok", WithBaseURL(srv.URL))

	_, err := c.GetRepository(context.Background(), "acme", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientUnexpectedStatus(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("tok", WithBaseURL(srv.URL))

	_, err := c.GetRepository(context.Background(), "acme", "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "403")
}

func TestClientGetTree(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(100))

	tree, err := c.GetTree(context.Background(), "acme", "widget", "trunk")
	require.NoError(t, err)
	require.Len(t, tree.Entries, 3)
	assert.Equal(t, "tree", tree.Entries[1].Type)
	assert.Equal(t, 12, tree.Entries[2].Size)
}

func TestClientGetContent(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("tok", WithBaseURL(srv.URL))

	body, err := c.GetContent(context.Background(), "acme", "widget", "src/main.go", "trunk")
	require.NoError(t, err)
	assert.Equal(t, "package main", body)

	_, err = c.GetContent(context.Background(), "acme", "widget", "src", "trunk")
	assert.Error(t, err)
}

func TestClientHonoursContext(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetRepository(ctx, "acme", "widget")
	assert.ErrorIs(t, err, context.Canceled)
}
