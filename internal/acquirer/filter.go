package acquirer

import (
	"strings"

	"github.com/ahmednasr/repomind/internal/classifier"
	"github.com/ahmednasr/repomind/internal/models"
)

// MaxAcquireBytes is the size ceiling above which a file is never read.
const MaxAcquireBytes = 500_000

// Reasons a listed file is dropped after reading.
const (
	skipReadError = "read_error"
	skipEmpty     = "empty"
	skipBinary    = "binary"
	skipTooLarge  = "too_large"
)

// eligible applies the path-only filters. size is the declared size from the
// listing; zero means unknown.
func eligible(path string, size int) bool {
	if classifier.ShouldExclude(path) || classifier.IsBinary(path) {
		return false
	}
	return size <= MaxAcquireBytes
}

// admit turns fetched content into a FileEntry. It returns a skip reason
// instead when the content is empty, contains a NUL byte, or turns out to be
// over the ceiling after all.
func admit(path string, declared int, content string) (models.FileEntry, string) {
	switch {
	case content == "":
		return models.FileEntry{}, skipEmpty
	case strings.IndexByte(content, 0) >= 0:
		return models.FileEntry{}, skipBinary
	case len(content) > MaxAcquireBytes:
		return models.FileEntry{}, skipTooLarge
	}

	return models.FileEntry{
		Path:     path,
		Content:  content,
		Language: classifier.DetectLanguage(path),
		Size:     max(declared, len(content)),
		Priority: classifier.Priority(path),
	}, ""
}

// collect compacts index-addressed slots into a file list, preserving slot
// order, and tallies the skip reasons.
func collect(slots []*models.FileEntry, reasons []string) ([]models.FileEntry, map[string]int) {
	files := make([]models.FileEntry, 0, len(slots))
	skipped := make(map[string]int)
	for i, f := range slots {
		if f != nil {
			files = append(files, *f)
			continue
		}
		skipped[reasons[i]]++
	}
	return files, skipped
}
