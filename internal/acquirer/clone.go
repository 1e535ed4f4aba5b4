package acquirer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/ahmednasr/repomind/internal/classifier"
	"github.com/ahmednasr/repomind/internal/metrics"
	"github.com/ahmednasr/repomind/internal/models"
)

// DefaultCloneTimeout bounds a single shallow clone.
const DefaultCloneTimeout = 2 * time.Minute

// CloneSource shallow-clones the repository into a temporary directory and
// walks the checkout. It needs a git binary on PATH.
type CloneSource struct {
	timeout time.Duration
	tempDir string // parent for checkouts; "" means os.TempDir
}

// NewCloneSource returns a clone-backed source. timeout <= 0 selects
// DefaultCloneTimeout.
func NewCloneSource(timeout time.Duration) *CloneSource {
	if timeout <= 0 {
		timeout = DefaultCloneTimeout
	}
	return &CloneSource{timeout: timeout}
}

func (s *CloneSource) Name() string { return "clone" }

// Acquire clones ref.URL at depth 1, reads its files and removes the checkout
// before returning.
func (s *CloneSource) Acquire(ctx context.Context, ref models.RepoRef) (*Snapshot, error) {
	dir, err := os.MkdirTemp(s.tempDir, "repomind-*")
	if err != nil {
		return nil, fmt.Errorf("create checkout dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := git(cctx, "", "clone", "--depth", "1", "--single-branch", "--no-tags", ref.URL, dir); err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return nil, unavailable(ref, fmt.Errorf("clone timed out after %s", s.timeout))
		}
		return nil, unavailable(ref, err)
	}

	branch, err := git(cctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		log.Printf("[Clone Source] could not read branch of %s: %v", ref.FullName(), err)
	}

	snap, err := walkCheckout(dir)
	if err != nil {
		return nil, unavailable(ref, err)
	}
	snap.DefaultBranch = branch

	metrics.AddFilesFetched(s.Name(), len(snap.Files))
	metrics.AddFilesSkipped(s.Name(), "walk", snap.Skipped)
	return snap, nil
}

// git runs a git subcommand and returns its trimmed stdout. Prompts are
// disabled so a private repository fails instead of blocking on credentials.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimSpace(string(out)), nil
}

// walkCheckout reads every admissible regular file under root in lexical
// order, honouring the root .gitignore on top of the classifier rules. Only a
// failure to open root itself is returned.
func walkCheckout(root string) (*Snapshot, error) {
	w := &checkoutWalker{root: root, snap: &Snapshot{}}
	if gi, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		w.ignore = gi
	}
	if err := filepath.WalkDir(root, w.visit); err != nil {
		return nil, err
	}
	return w.snap, nil
}

type checkoutWalker struct {
	root   string
	ignore *gitignore.GitIgnore
	snap   *Snapshot
}

func (w *checkoutWalker) ignored(rel string, isDir bool) bool {
	if w.ignore == nil {
		return false
	}
	if isDir {
		return w.ignore.MatchesPath(rel) || w.ignore.MatchesPath(rel+"/")
	}
	return w.ignore.MatchesPath(rel)
}

// visit is the fs.WalkDirFunc for walkCheckout. An entry that cannot be
// stat'ed or listed is counted as skipped and the walk moves on.
func (w *checkoutWalker) visit(p string, d fs.DirEntry, err error) error {
	if p == w.root {
		return err
	}
	rel, relErr := filepath.Rel(w.root, p)
	if relErr != nil {
		return relErr
	}
	rel = filepath.ToSlash(rel)

	if err != nil {
		log.Printf("[Clone Source] skipping %s: %v", rel, err)
		w.snap.Listed++
		w.snap.Skipped++
		if d != nil && d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	if d.IsDir() {
		if classifier.ShouldExclude(rel) || w.ignored(rel, true) {
			return filepath.SkipDir
		}
		return nil
	}
	if !d.Type().IsRegular() || w.ignored(rel, false) {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		return nil
	}
	size := int(info.Size())
	if !eligible(rel, size) {
		return nil
	}

	w.snap.Listed++
	raw, err := os.ReadFile(p)
	if err != nil {
		log.Printf("[Clone Source] skipping %s: %v", rel, err)
		w.snap.Skipped++
		return nil
	}
	f, reason := admit(rel, size, string(raw))
	if reason != "" {
		w.snap.Skipped++
		return nil
	}
	w.snap.Files = append(w.snap.Files, f)
	return nil
}
