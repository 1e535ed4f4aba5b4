package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ahmednasr/repomind/internal/models"
)

const githubHost = "github.com"

// aliases maps demo short names to canonical repository URLs.
var aliases = map[string]string{
	"express": "https://github.com/expressjs/express",
	"react":   "https://github.com/facebook/react",
	"nextjs":  "https://github.com/vercel/next.js",
}

// githubURL captures owner and name. Extra path segments such as
// /tree/main/docs, a query string or a fragment are accepted and ignored.
var githubURL = regexp.MustCompile(`^(?:https?://)?(?:www\.)?github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+?)(?:\.git)?(?:[/?#].*)?$`)

// ParseReference turns a GitHub URL into a repository coordinate.
func ParseReference(raw string) (models.RepoRef, error) {
	s := strings.TrimSpace(raw)
	m := githubURL.FindStringSubmatch(s)
	if m == nil || !validSegment(m[1]) || !validSegment(m[2]) {
		return models.RepoRef{}, fmt.Errorf("%w: %q is not a GitHub URL, expected https://github.com/owner/repo", models.ErrInvalidReference, raw)
	}

	owner, name := m[1], m[2]
	return models.RepoRef{
		Host:  githubHost,
		Owner: owner,
		Name:  name,
		URL:   fmt.Sprintf("https://%s/%s/%s", githubHost, owner, name),
	}, nil
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".."
}

// ResolveAlias returns the canonical URL of a demo alias.
func ResolveAlias(alias string) (string, error) {
	url, ok := aliases[strings.ToLower(strings.TrimSpace(alias))]
	if !ok {
		return "", fmt.Errorf("%w: unknown alias %q, available: %s", models.ErrInvalidReference, alias, strings.Join(Aliases(), ", "))
	}
	return url, nil
}

// Aliases lists the known alias names in sorted order.
func Aliases() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveReference accepts either an alias or a URL. Alias lookup comes first.
func ResolveReference(reference string) (models.RepoRef, error) {
	if url, err := ResolveAlias(reference); err == nil {
		return ParseReference(url)
	}
	return ParseReference(reference)
}
