package models

// DiagramNode is one box in an architecture diagram.
type DiagramNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"` // module | component | util | config | test | entry
	Description string `json:"description"`
	FilePath    string `json:"filePath,omitempty"`
}

// DiagramEdge links two nodes by id.
type DiagramEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
	Type   string `json:"type"` // imports | extends | uses | configures
}

// Diagram is the JSON shape the diagram prompt asks the model for.
type Diagram struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Nodes       []DiagramNode `json:"nodes"`
	Edges       []DiagramEdge `json:"edges"`
}
