package contextbuilder

import (
	"sort"

	"github.com/ahmednasr/repomind/internal/models"
)

// Order returns a new slice of files sorted by priority, then size (smaller
// first), then path. The input slice is left untouched.
//
// The path key never reorders files that differ in priority or size; it only
// makes the result independent of the order acquisition happened to produce.
func Order(files []models.FileEntry) []models.FileEntry {
	out := make([]models.FileEntry, len(files))
	copy(out, files)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		return a.Path < b.Path
	})
	return out
}

// CountLanguages tallies files per language tag.
func CountLanguages(files []models.FileEntry) map[string]int {
	counts := make(map[string]int)
	for _, f := range files {
		counts[f.Language]++
	}
	return counts
}
