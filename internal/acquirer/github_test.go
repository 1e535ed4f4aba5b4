package acquirer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/repomind/internal/github"
	"github.com/ahmednasr/repomind/internal/models"
)

type fakeRepo struct {
	branch   string
	entries  []github.TreeEntry
	contents map[string]string
	failing  map[string]bool
	delays   map[string]time.Duration
}

func (f *fakeRepo) server(t *testing.T, inFlight, peak *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"default_branch": f.branch})
	})
	mux.HandleFunc("/repos/acme/widget/git/trees/"+f.branch, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"tree": f.entries})
	})
	mux.HandleFunc("/repos/acme/widget/contents/", func(w http.ResponseWriter, r *http.Request) {
		if inFlight != nil {
			n := atomic.AddInt32(inFlight, 1)
			defer atomic.AddInt32(inFlight, -1)
			for {
				p := atomic.LoadInt32(peak)
				if n <= p || atomic.CompareAndSwapInt32(peak, p, n) {
					break
				}
			}
		}

		path := strings.TrimPrefix(r.URL.Path, "/repos/acme/widget/contents/")
		time.Sleep(f.delays[path])
		if f.failing[path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, ok := f.contents[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(body)),
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func blob(path string, size int) github.TreeEntry {
	return github.TreeEntry{Path: path, Type: "blob", Size: size}
}

var widget = models.RepoRef{Host: "github.com", Owner: "acme", Name: "widget", URL: "https://github.com/acme/widget"}

func TestGitHubSourceAcquire(t *testing.T) {
	repo := &fakeRepo{
		branch: "main",
		entries: []github.TreeEntry{
			{Path: "src", Type: "tree"},
			blob("README.md", 7),
			blob("src/index.ts", 9),
			blob("node_modules/x/index.js", 10),
			blob("logo.png", 100),
			blob("data/huge.json", 600_000),
			blob("src/flaky.ts", 5),
			blob("src/nul.ts", 4),
			blob("src/empty.ts", 0),
		},
		contents: map[string]string{
			"README.md":    "# hello",
			"src/index.ts": "export {}",
			"src/nul.ts":   "a\x00bc",
			"src/empty.ts": "",
		},
		failing: map[string]bool{"src/flaky.ts": true},
	}
	srv := repo.server(t, nil, nil)

	src := NewGitHubSource(github.NewClient("", github.WithBaseURL(srv.URL)))
	snap, err := src.Acquire(context.Background(), widget)
	require.NoError(t, err)

	require.Len(t, snap.Files, 2)
	assert.Equal(t, "main", snap.DefaultBranch)
	assert.Equal(t, 5, snap.Listed)
	assert.Equal(t, 3, snap.Skipped)

	readme := snap.Files[0]
	assert.Equal(t, "README.md", readme.Path)
	assert.Equal(t, "# hello", readme.Content)
	assert.Equal(t, "markdown", readme.Language)
	assert.Equal(t, 7, readme.Size)
	assert.Equal(t, 0, readme.Priority)

	assert.Equal(t, "src/index.ts", snap.Files[1].Path)
	assert.Equal(t, 8, snap.Files[1].Priority)
}

func TestGitHubSourceOrderIgnoresCompletionOrder(t *testing.T) {
	repo := &fakeRepo{
		branch:   "dev",
		contents: map[string]string{},
		delays:   map[string]time.Duration{},
	}
	for i, name := range []string{"a.go", "b.go", "c.go", "d.go"} {
		repo.entries = append(repo.entries, blob(name, 1))
		repo.contents[name] = name
		// earlier entries finish last
		repo.delays[name] = time.Duration(4-i) * 15 * time.Millisecond
	}
	srv := repo.server(t, nil, nil)

	snap, err := NewGitHubSource(github.NewClient("", github.WithBaseURL(srv.URL))).Acquire(context.Background(), widget)
	require.NoError(t, err)

	var got []string
	for _, f := range snap.Files {
		got = append(got, f.Path)
	}
	assert.Equal(t, []string{"a.go", "b.go", "c.go", "d.go"}, got)
	assert.Equal(t, "dev", snap.DefaultBranch)
}

func TestGitHubSourceBoundsConcurrency(t *testing.T) {
	repo := &fakeRepo{branch: "main", contents: map[string]string{}, delays: map[string]time.Duration{}}
	for i := 0; i < 40; i++ {
		name := "f" + strings.Repeat("x", i) + ".go"
		repo.entries = append(repo.entries, blob(name, 1))
		repo.contents[name] = "x"
		repo.delays[name] = 10 * time.Millisecond
	}
	var inFlight, peak int32
	srv := repo.server(t, &inFlight, &peak)

	snap, err := NewGitHubSource(github.NewClient("", github.WithBaseURL(srv.URL))).Acquire(context.Background(), widget)
	require.NoError(t, err)

	assert.Len(t, snap.Files, 40)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(DefaultFetchConcurrency))
}

func TestGitHubSourceMissingRepository(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewGitHubSource(github.NewClient("", github.WithBaseURL(srv.URL))).Acquire(context.Background(), widget)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRepositoryUnavailable)
	assert.Contains(t, err.Error(), "acme/widget")
}

func TestGitHubSourceCancelled(t *testing.T) {
	repo := &fakeRepo{branch: "main", contents: map[string]string{"a.go": "a"}, entries: []github.TreeEntry{blob("a.go", 1)}}
	srv := repo.server(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGitHubSource(github.NewClient("", github.WithBaseURL(srv.URL))).Acquire(ctx, widget)
	assert.ErrorIs(t, err, models.ErrRepositoryUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
