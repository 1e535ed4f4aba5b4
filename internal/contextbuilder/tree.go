package contextbuilder

import (
	"sort"
	"strings"

	"github.com/ahmednasr/repomind/internal/models"
)

// BuildFileTree renders the file list as an indented tree: paths sorted
// lexicographically, one per line, two spaces per level below the root,
// showing only the last path segment.
func BuildFileTree(files []models.FileEntry) string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)

	var sb strings.Builder
	for i, p := range paths {
		if i > 0 {
			sb.WriteByte('\n')
		}
		parts := strings.Split(p, "/")
		sb.WriteString(strings.Repeat("  ", len(parts)-1))
		sb.WriteString(parts[len(parts)-1])
	}
	return sb.String()
}
