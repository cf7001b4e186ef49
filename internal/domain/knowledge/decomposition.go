package knowledge

// DecomposedChunk is one segment returned by the AI decomposition, already validated.
type DecomposedChunk struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type Decomposition struct {
	DocumentType string            `json:"document_type"`
	Chunks       []DecomposedChunk `json:"chunks"`
}
