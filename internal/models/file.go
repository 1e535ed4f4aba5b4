package models

// FileEntry is one discovered source file. Entries are read-only once
// acquisition has produced them.
type FileEntry struct {
	Path     string `json:"path"`     // slash-separated, relative to the repo root
	Content  string `json:"content"`  // decoded text, never binary
	Language string `json:"language"` // e.g. "python", "dockerfile", "text"
	Size     int    `json:"size"`     // original byte length, before any truncation
	Priority int    `json:"priority"` // lower sorts first
}
