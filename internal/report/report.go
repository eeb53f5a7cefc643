// internal/report/report.go
// Package report turns a persisted evaluation run into a human-readable
// Markdown analysis: per-question scoring, tier breakdown, chunk usage, and
// tuning recommendations.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/mwiater/corpusq/internal/eval"
	"github.com/mwiater/corpusq/internal/util"
)

const excerptLimit = 200

// QuestionAnalysis is the scored view of one evaluation record.
type QuestionAnalysis struct {
	Index          int
	Question       string
	Expected       string
	AnswerExcerpt  string
	Sources        []string
	Similarity     float64
	Classification string
	Tokens         int
	TimeSeconds    float64
	Success        bool
	Error          string
}

// ChunkUsage is one row of the source-frequency histogram.
type ChunkUsage struct {
	ChunkID string
	Count   int
}

// Analysis is the fully scored report, ready for rendering.
type Analysis struct {
	Metadata       eval.RunMetadata
	Questions      []QuestionAnalysis
	AvgSimilarity  float64
	SuccessPercent float64
	TierCounts     map[string]int
	ChunkUsage     []ChunkUsage
	Recommendation string
}

// Analyze scores every record in the report against its expected answer and
// aggregates the run. Failed records score zero and stay in the totals.
func Analyze(report eval.EvaluationReport, refusalPhrases []string) Analysis {
	analysis := Analysis{
		Metadata: report.Metadata,
		TierCounts: map[string]int{
			eval.TierCorrect:      0,
			eval.TierPartial:      0,
			eval.TierIncorrect:    0,
			eval.TierTotallyWrong: 0,
			eval.TierNoInfo:       0,
		},
	}

	usage := map[string]int{}
	var similaritySum float64
	for i, record := range report.Results {
		qa := QuestionAnalysis{
			Index:         i + 1,
			Question:      record.Question,
			Expected:      record.Expected,
			AnswerExcerpt: excerpt(record.Answer),
			Sources:       record.Sources,
			Tokens:        record.Tokens,
			TimeSeconds:   record.TimeSeconds,
			Success:       record.Success,
		}
		if record.Error != nil {
			qa.Error = *record.Error
		}
		if record.Success {
			qa.Similarity = eval.CalculateSimilarity(record.Expected, record.Answer)
			qa.Classification = eval.Classify(qa.Similarity, record.Answer, refusalPhrases)
		} else {
			qa.Classification = eval.TierTotallyWrong
		}

		similaritySum += qa.Similarity
		analysis.TierCounts[qa.Classification]++
		for _, id := range record.Sources {
			usage[id]++
		}
		analysis.Questions = append(analysis.Questions, qa)
	}

	if len(report.Results) > 0 {
		analysis.AvgSimilarity = similaritySum / float64(len(report.Results))
		analysis.SuccessPercent = 100 * float64(report.Metadata.Successful) / float64(len(report.Results))
	}

	for id, count := range usage {
		analysis.ChunkUsage = append(analysis.ChunkUsage, ChunkUsage{ChunkID: id, Count: count})
	}
	sort.Slice(analysis.ChunkUsage, func(i, j int) bool {
		if analysis.ChunkUsage[i].Count != analysis.ChunkUsage[j].Count {
			return analysis.ChunkUsage[i].Count > analysis.ChunkUsage[j].Count
		}
		return analysis.ChunkUsage[i].ChunkID < analysis.ChunkUsage[j].ChunkID
	})

	analysis.Recommendation = recommendation(analysis.AvgSimilarity)
	return analysis
}

func recommendation(avgSimilarity float64) string {
	switch {
	case avgSimilarity < 0.3:
		return "CRITICAL: answers barely overlap with the expected ones. Revise the chunking strategy: the indexed chunks are probably too coarse or off-topic for the question set."
	case avgSimilarity < 0.6:
		return "MODERATE: answers are in the right neighborhood but imprecise. Tune the system prompt and retrieval settings (chunk count, reranking) before touching the corpus."
	default:
		return "GOOD: the pipeline answers the question set reliably. Keep the current configuration as a baseline for future runs."
	}
}

func excerpt(text string) string {
	return util.TruncateRunes(strings.TrimSpace(text), excerptLimit)
}

// Generate renders the Markdown report for a scored analysis.
func Generate(analysis Analysis) (string, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, analysis); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// Write renders the report and persists it, creating parent directories.
func Write(path string, analysis Analysis) error {
	content, err := Generate(analysis)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

var markdownTemplate = template.Must(template.New("eval-report").Funcs(template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"score": func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"secs":  func(v float64) string { return fmt.Sprintf("%.2fs", v) },
	"tier":  func(m map[string]int, key string) int { return m[key] },
	"weak":  func(v float64) bool { return v < 0.5 },
	"join":  func(elems []string) string { return strings.Join(elems, ", ") },
}).Parse(markdownTemplateText))

const markdownTemplateText = `# Evaluation Report

- **Run:** {{ .Metadata.RunID }}
- **Timestamp:** {{ .Metadata.Timestamp }}
- **Model:** {{ .Metadata.Model }}{{ if .Metadata.EmbeddingModel }}
- **Embedding model:** {{ .Metadata.EmbeddingModel }}{{ end }}
- **Chunks per question:** {{ .Metadata.NChunks }}

## Summary

| Metric | Value |
|--------|-------|
| Questions | {{ .Metadata.TotalQuestions }} |
| Successful | {{ .Metadata.Successful }} ({{ pct .SuccessPercent }}) |
| Failed | {{ .Metadata.Failed }} |
| Average similarity | {{ score .AvgSimilarity }} |
| Total tokens | {{ .Metadata.TotalTokens }} |
| Total time | {{ secs .Metadata.TotalTime }} |

## Answer Quality

| Tier | Count |
|------|-------|
| Correct | {{ tier .TierCounts "correct" }} |
| Partial | {{ tier .TierCounts "partial" }} |
| Incorrect | {{ tier .TierCounts "incorrect" }} |
| Totally wrong | {{ tier .TierCounts "totally wrong" }} |
| No information found | {{ tier .TierCounts "no information found" }} |

## Chunk Usage
{{ if .ChunkUsage }}
| Chunk | Citations |
|-------|-----------|
{{ range .ChunkUsage }}| {{ .ChunkID }} | {{ .Count }} |
{{ end }}{{ else }}
No chunks were cited in this run.
{{ end }}
## Recommendation

{{ .Recommendation }}

## Questions
{{ range .Questions }}
### {{ .Index }}. {{ .Question }}

- **Expected:** {{ .Expected }}
- **Similarity:** {{ score .Similarity }} ({{ .Classification }})
{{- if .Success }}
- **Sources:** {{ if .Sources }}{{ join .Sources }}{{ else }}none{{ end }}
- **Tokens:** {{ .Tokens }}, **Time:** {{ secs .TimeSeconds }}

> {{ .AnswerExcerpt }}
{{- if weak .Similarity }}

FAILURE: answer diverges from the expected one; inspect the cited chunks.
{{- end }}
{{- else }}
- **Error:** {{ .Error }}

FAILURE: the question could not be answered.
{{- end }}
{{ end }}`
