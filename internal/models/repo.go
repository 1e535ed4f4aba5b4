package models

// RepoRef is a resolved repository coordinate.
type RepoRef struct {
	Host  string `json:"host"`  // e.g. "github.com"
	Owner string `json:"owner"` // e.g. "expressjs"
	Name  string `json:"name"`  // e.g. "express"
	URL   string `json:"url"`   // canonical https URL, no ".git"
}

// FullName returns "owner/name".
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// RepoMetadata summarises one ingested repository. It is embedded in a Session
// and never changes after ingestion.
type RepoMetadata struct {
	Name          string         `json:"name"          bson:"name"`
	Owner         string         `json:"owner"         bson:"owner"`
	URL           string         `json:"url"           bson:"url"`
	DefaultBranch string         `json:"defaultBranch" bson:"default_branch"`
	FileCount     int            `json:"fileCount"     bson:"file_count"`  // candidate files considered
	TotalTokens   int            `json:"totalTokens"   bson:"total_tokens"` // estimated tokens of the context
	Languages     map[string]int `json:"languages"     bson:"languages"`
	TopFiles      []string       `json:"topFiles"      bson:"top_files"` // first 10 included paths
}

// IngestResult is what an ingestion hands back to its caller.
type IngestResult struct {
	SessionID     string       `json:"sessionId"`
	Metadata      RepoMetadata `json:"metadata"`
	TokenCount    int          `json:"tokenCount"`
	Truncated     bool         `json:"truncated"`
	FilesIncluded int          `json:"filesIncluded"`
	FilesTotal    int          `json:"filesTotal"`
}
