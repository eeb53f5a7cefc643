package rag

// RetrievedChunk is a query-time view of a stored record plus its distance
// from the query. Not persisted.
type RetrievedChunk struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Distance float64        `json:"distance"`
}

// AnswerResult is the structured outcome of one Ask call.
type AnswerResult struct {
	Question         string           `json:"question"`
	Answer           string           `json:"answer"`
	Sources          []string         `json:"sources"`
	ChunksUsed       []RetrievedChunk `json:"chunks_used"`
	Model            string           `json:"model"`
	TokensUsed       int              `json:"tokens_used"`
	PromptTokens     int              `json:"prompt_tokens"`
	CompletionTokens int              `json:"completion_tokens"`
}
