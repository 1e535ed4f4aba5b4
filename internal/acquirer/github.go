package acquirer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ahmednasr/repomind/internal/github"
	"github.com/ahmednasr/repomind/internal/metrics"
	"github.com/ahmednasr/repomind/internal/models"
)

// DefaultFetchConcurrency bounds in-flight content requests.
const DefaultFetchConcurrency = 10

// GitHubSource reads a repository through the GitHub REST API without
// touching disk.
type GitHubSource struct {
	client      *github.Client
	concurrency int
}

// NewGitHubSource builds a source on top of client.
func NewGitHubSource(client *github.Client) *GitHubSource {
	return &GitHubSource{client: client, concurrency: DefaultFetchConcurrency}
}

func (s *GitHubSource) Name() string { return "github" }

// Acquire resolves the default branch, lists the full tree, and downloads
// every eligible blob with at most s.concurrency requests in flight. Each
// result lands in the slot of its tree position, so the returned order is the
// tree order no matter which download finishes first.
func (s *GitHubSource) Acquire(ctx context.Context, ref models.RepoRef) (*Snapshot, error) {
	repo, err := s.client.GetRepository(ctx, ref.Owner, ref.Name)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not found or is private", models.ErrRepositoryUnavailable, ref.FullName())
		}
		return nil, unavailable(ref, err)
	}

	branch := repo.DefaultBranch
	if branch == "" {
		branch = "HEAD"
	}

	tree, err := s.client.GetTree(ctx, ref.Owner, ref.Name, branch)
	if err != nil {
		return nil, unavailable(ref, err)
	}
	if tree.Truncated {
		log.Printf("[GitHub Source] tree for %s is truncated, continuing with %d entries", ref.FullName(), len(tree.Entries))
	}

	var candidates []github.TreeEntry
	for _, e := range tree.Entries {
		if e.Type == "blob" && eligible(e.Path, e.Size) {
			candidates = append(candidates, e)
		}
	}

	slots := make([]*models.FileEntry, len(candidates))
	reasons := make([]string, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, e := range candidates {
		g.Go(func() error {
			body, err := s.client.GetContent(gctx, ref.Owner, ref.Name, e.Path, branch)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[GitHub Source] skipping %s: %v", e.Path, err)
				reasons[i] = skipReadError
				return nil
			}
			f, reason := admit(e.Path, e.Size, body)
			if reason != "" {
				reasons[i] = reason
				return nil
			}
			slots[i] = &f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, unavailable(ref, err)
	}

	files, skipped := collect(slots, reasons)
	metrics.AddFilesFetched(s.Name(), len(files))
	for reason, n := range skipped {
		metrics.AddFilesSkipped(s.Name(), reason, n)
	}

	return &Snapshot{
		Files:         files,
		DefaultBranch: repo.DefaultBranch,
		Listed:        len(candidates),
		Skipped:       len(candidates) - len(files),
	}, nil
}
