// Package acquirer turns a repository coordinate into the list of readable
// source files worth showing to the model.
//
// Two backends exist: GitHubSource reads through the REST tree and contents
// endpoints, CloneSource shallow-clones with the git binary and walks the
// checkout. Both apply the same admission rules (see admit) and both absorb
// per-file failures: a file that cannot be read is logged, counted in
// Snapshot.Skipped and left out. Only repository-level failures are returned.
package acquirer

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmednasr/repomind/internal/github"
	"github.com/ahmednasr/repomind/internal/models"
)

// Source acquires the candidate files of one repository.
type Source interface {
	Acquire(ctx context.Context, ref models.RepoRef) (*Snapshot, error)
	// Name labels the backend in logs and metrics.
	Name() string
}

// Snapshot is the outcome of one acquisition.
type Snapshot struct {
	Files         []models.FileEntry
	DefaultBranch string
	// Listed is the number of paths that passed the path filters and were
	// read, plus any the walk could not open; Skipped is how many of those
	// were then dropped.
	Listed  int
	Skipped int
}

// unavailable wraps err so callers can test for ErrRepositoryUnavailable
// while keeping the underlying cause reachable.
func unavailable(ref models.RepoRef, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrRepositoryUnavailable, ref.FullName(), err)
}

// New selects a backend by name, "github" or "clone".
func New(kind string, client *github.Client, cloneTimeout time.Duration) (Source, error) {
	switch kind {
	case "github":
		return NewGitHubSource(client), nil
	case "clone":
		return NewCloneSource(cloneTimeout), nil
	default:
		return nil, fmt.Errorf("unknown acquirer %q", kind)
	}
}
