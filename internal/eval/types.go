// internal/eval/types.go
package eval

// DatasetEntry is one labeled question extracted from a chat-format record.
type DatasetEntry struct {
	Question       string
	ExpectedAnswer string
	SystemPrompt   string
}

// EvaluationRecord is the outcome of evaluating one question. Failed asks
// are recorded, never re-raised: one bad question must not abort the batch.
type EvaluationRecord struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Expected    string   `json:"expected"`
	Sources     []string `json:"sources"`
	Tokens      int      `json:"tokens"`
	TimeSeconds float64  `json:"time"`
	Success     bool     `json:"success"`
	Error       *string  `json:"error"`
}

// RunMetadata aggregates an evaluation run.
type RunMetadata struct {
	Timestamp      string  `json:"timestamp"`
	RunID          string  `json:"run_id,omitempty"`
	Model          string  `json:"model"`
	EmbeddingModel string  `json:"embedding_model,omitempty"`
	NChunks        int     `json:"n_chunks"`
	TotalQuestions int     `json:"total_questions"`
	Successful     int     `json:"successful"`
	Failed         int     `json:"failed"`
	TotalTime      float64 `json:"total_time"`
	TotalTokens    int     `json:"total_tokens"`
	AvgTime        float64 `json:"avg_time,omitempty"`
	AvgTokens      float64 `json:"avg_tokens,omitempty"`
}

// EvaluationReport is the write-once JSON artifact consumed by the report
// generator.
type EvaluationReport struct {
	Metadata RunMetadata        `json:"metadata"`
	Results  []EvaluationRecord `json:"results"`
}

// Outcome quality tiers.
const (
	TierCorrect      = "correct"
	TierPartial      = "partial"
	TierIncorrect    = "incorrect"
	TierTotallyWrong = "totally wrong"
	TierNoInfo       = "no information found"
)
