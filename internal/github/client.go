package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com"

// ErrNotFound is returned for 404 responses. GitHub also answers 404 for
// private repositories the token cannot see.
var ErrNotFound = errors.New("github: not found")

// Repository is the subset of GET /repos/{owner}/{repo} we use.
type Repository struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
}

// TreeEntry is one item of a git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"` // "blob" | "tree" | "commit"
	SHA  string `json:"sha"`
	Size int    `json:"size"`
}

// Tree is a recursive tree listing. Truncated is set by GitHub when the
// repository has more entries than one response can carry.
type Tree struct {
	SHA       string      `json:"sha"`
	Entries   []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type contentResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	Size     int    `json:"size"`
}

// Client is a minimal wrapper around GitHub's REST API v3.
// It is intentionally light, just the endpoints ingestion requires.
type Client struct {
	http    *http.Client
	token   string
	baseURL string
	limiter *rate.Limiter
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit paces outgoing requests to rps per second. rps <= 0 disables
// pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient returns a ready-to-use GitHub API client.
// token may be an empty string, but you will be subject to very low rate-limits.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		token:   token,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRepository fetches repository metadata, chiefly the default branch.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (Repository, error) {
	u := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	var r Repository
	if err := c.get(ctx, u, &r); err != nil {
		return Repository{}, err
	}
	return r, nil
}

// GetTree lists every entry reachable from ref.
//
//	owner – repository owner (e.g., "expressjs")
//	repo  – repository name  (e.g., "express")
//	ref   – branch, tag or commit SHA
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string) (Tree, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(ref))

	var t Tree
	if err := c.get(ctx, u, &t); err != nil {
		return Tree{}, err
	}
	return t, nil
}

// GetContent downloads and decodes a single file at ref.
func (c *Client) GetContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), escapePath(path))
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}

	var cr contentResponse
	if err := c.get(ctx, u, &cr); err != nil {
		return "", err
	}
	if cr.Type != "" && cr.Type != "file" {
		return "", fmt.Errorf("github: %s is a %s, not a file", path, cr.Type)
	}
	if cr.Encoding != "base64" {
		return "", fmt.Errorf("github: unsupported encoding %q for %s", cr.Encoding, path)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(cr.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("github: decode %s: %w", path, err)
	}
	return string(raw), nil
}

func (c *Client) get(ctx context.Context, u string, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)

	return c.do(req, v)
}

// addHeaders sets authentication and Accept headers.
func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", "repomind")
}

// do executes the HTTP request and decodes JSON into v.
func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("github: unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
