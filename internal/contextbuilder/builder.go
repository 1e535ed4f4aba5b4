// Package contextbuilder orders acquired files and assembles them into a
// single bounded text document for the model.
package contextbuilder

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ahmednasr/repomind/internal/models"
)

const (
	// DefaultTokenBudget leaves room for the system prompt and the answer
	// inside a 1M-token window.
	DefaultTokenBudget = 800_000
	// DefaultMaxFileBytes caps a single file's content in the context.
	DefaultMaxFileBytes = 50_000
	// MaxTopFiles is how many included paths metadata reports.
	MaxTopFiles = 10

	defaultBranch   = "main"
	truncatedMarker = "\n\n[... file truncated at 50KB ...]"
)

// Input is everything Assemble needs about one repository.
type Input struct {
	Owner         string
	Name          string
	URL           string
	DefaultBranch string
	Files         []models.FileEntry // all candidates, any order
	FileTree      string
}

// Result is the assembled context plus bookkeeping.
type Result struct {
	Context         string
	Metadata        models.RepoMetadata
	EstimatedTokens int
	FilesIncluded   int
	FilesTotal      int
	Truncated       bool
}

// Builder assembles contexts under a fixed token budget.
type Builder struct {
	TokenBudget  int
	MaxFileBytes int
}

// NewBuilder returns a Builder with the production limits.
func NewBuilder() *Builder {
	return &Builder{
		TokenBudget:  DefaultTokenBudget,
		MaxFileBytes: DefaultMaxFileBytes,
	}
}

// Assemble renders the header and file tree, then appends one fenced section
// per file in priority order until the next section would push the estimate
// past the budget. A file is either included whole (possibly capped with the
// truncation marker) or not at all, and nothing after the first rejected file
// is included.
func (b *Builder) Assemble(in Input) Result {
	ordered := Order(in.Files)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Repository: %s/%s\n\n", in.Owner, in.Name)
	fmt.Fprintf(&sb, "## File Structure\n```\n%s\n```\n\n", in.FileTree)
	sb.WriteString("## Key Files\n\n")

	tokens := EstimateTokens(sb.String())
	included := 0
	truncated := false
	topFiles := make([]string, 0, MaxTopFiles)

	for _, f := range ordered {
		section := b.section(f)
		cost := EstimateTokens(section)
		if tokens+cost > b.TokenBudget {
			truncated = true
			break
		}
		sb.WriteString(section)
		tokens += cost
		included++
		if len(topFiles) < MaxTopFiles {
			topFiles = append(topFiles, f.Path)
		}
	}

	branch := in.DefaultBranch
	if branch == "" {
		branch = defaultBranch
	}

	return Result{
		Context: sb.String(),
		Metadata: models.RepoMetadata{
			Name:          in.Name,
			Owner:         in.Owner,
			URL:           in.URL,
			DefaultBranch: branch,
			FileCount:     len(in.Files),
			TotalTokens:   tokens,
			Languages:     CountLanguages(in.Files),
			TopFiles:      topFiles,
		},
		EstimatedTokens: tokens,
		FilesIncluded:   included,
		FilesTotal:      len(in.Files),
		Truncated:       truncated,
	}
}

func (b *Builder) section(f models.FileEntry) string {
	content := f.Content
	note := ""
	if len(content) > b.MaxFileBytes {
		content = capBytes(content, b.MaxFileBytes)
		note = truncatedMarker
	}
	return fmt.Sprintf("### %s\n```%s\n%s%s\n```\n\n", f.Path, f.Language, content, note)
}

// capBytes cuts s to at most n bytes without splitting a UTF-8 sequence.
func capBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
