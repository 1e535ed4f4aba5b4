package models

// IngestRequest is the payload for POST /ingest. Exactly one of the fields
// is expected; Reference accepts either an alias or a URL.
type IngestRequest struct {
	URL       string `json:"url"`
	Preloaded string `json:"preloaded"`
	Reference string `json:"reference"`
}

// QueryRequest is the payload for POST /query.
type QueryRequest struct {
	SessionID string `json:"sessionId"`
	Query     string `json:"query"`
}

// DiagramRequest is the payload for POST /diagram.
type DiagramRequest struct {
	SessionID string `json:"sessionId"`
	Focus     string `json:"focus,omitempty"`
}
