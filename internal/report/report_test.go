// internal/report/report_test.go
package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/corpusq/internal/eval"
)

func strptr(s string) *string { return &s }

func sampleReport() eval.EvaluationReport {
	return eval.EvaluationReport{
		Metadata: eval.RunMetadata{
			Timestamp:      "2026-08-30T12:00:00Z",
			RunID:          "run-1",
			Model:          "llama3",
			NChunks:        5,
			TotalQuestions: 4,
			Successful:     3,
			Failed:         1,
			TotalTime:      6.0,
			TotalTokens:    120,
		},
		Results: []eval.EvaluationRecord{
			{
				Question:    "What is the capital of France?",
				Answer:      "Paris",
				Expected:    "Paris",
				Sources:     []string{"c1", "c2"},
				Tokens:      40,
				TimeSeconds: 2.0,
				Success:     true,
			},
			{
				Question:    "Largest planet?",
				Answer:      "The largest planet is Saturn.",
				Expected:    "Jupiter",
				Sources:     []string{"c2"},
				Tokens:      40,
				TimeSeconds: 2.0,
				Success:     true,
			},
			{
				Question:    "Who wrote Hamlet?",
				Answer:      "I don't have enough information to answer that.",
				Expected:    "Shakespeare",
				Sources:     []string{},
				Tokens:      40,
				TimeSeconds: 2.0,
				Success:     true,
			},
			{
				Question: "Boiling point of water?",
				Expected: "100 degrees Celsius",
				Sources:  []string{},
				Success:  false,
				Error:    strptr("embedding backend unreachable"),
			},
		},
	}
}

func TestAnalyzeCountsEveryQuestion(t *testing.T) {
	analysis := Analyze(sampleReport(), []string{"i don't have enough information"})

	if len(analysis.Questions) != 4 {
		t.Fatalf("expected 4 analyzed questions, got %d", len(analysis.Questions))
	}
	if analysis.TierCounts[eval.TierCorrect] != 1 {
		t.Fatalf("expected 1 correct, got %d", analysis.TierCounts[eval.TierCorrect])
	}
	if analysis.TierCounts[eval.TierNoInfo] != 1 {
		t.Fatalf("expected 1 no-info, got %d", analysis.TierCounts[eval.TierNoInfo])
	}

	total := 0
	for _, count := range analysis.TierCounts {
		total += count
	}
	if total != 4 {
		t.Fatalf("tier counts should cover every question, got %d", total)
	}
}

func TestAnalyzeSuccessPercent(t *testing.T) {
	analysis := Analyze(sampleReport(), nil)
	if math.Abs(analysis.SuccessPercent-75.0) > 0.1 {
		t.Fatalf("expected 75%% success, got %f", analysis.SuccessPercent)
	}
}

func TestAnalyzeChunkUsageHistogram(t *testing.T) {
	analysis := Analyze(sampleReport(), nil)
	if len(analysis.ChunkUsage) != 2 {
		t.Fatalf("expected 2 distinct chunks, got %d", len(analysis.ChunkUsage))
	}
	if analysis.ChunkUsage[0].ChunkID != "c2" || analysis.ChunkUsage[0].Count != 2 {
		t.Fatalf("expected c2 cited twice first, got %+v", analysis.ChunkUsage[0])
	}
}

func TestRecommendationTiers(t *testing.T) {
	if !strings.HasPrefix(recommendation(0.1), "CRITICAL") {
		t.Fatal("expected CRITICAL below 0.3")
	}
	if !strings.HasPrefix(recommendation(0.45), "MODERATE") {
		t.Fatal("expected MODERATE below 0.6")
	}
	if !strings.HasPrefix(recommendation(0.85), "GOOD") {
		t.Fatal("expected GOOD at or above 0.6")
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := excerpt(long)
	if len([]rune(got)) != 201 {
		t.Fatalf("expected 200 runes plus ellipsis, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatal("expected ellipsis suffix")
	}
	if excerpt("short") != "short" {
		t.Fatal("short answers should pass through unchanged")
	}
}

func TestGenerateRendersAllSections(t *testing.T) {
	analysis := Analyze(sampleReport(), []string{"i don't have enough information"})
	content, err := Generate(analysis)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, want := range []string{
		"# Evaluation Report",
		"## Summary",
		"## Answer Quality",
		"## Chunk Usage",
		"## Recommendation",
		"What is the capital of France?",
		"embedding backend unreachable",
		"FAILURE",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Every question from the source report appears exactly once as a section.
	if got := strings.Count(content, "\n### "); got != 4 {
		t.Fatalf("expected 4 question sections, got %d", got)
	}
}

func TestWriteCreatesDirectories(t *testing.T) {
	analysis := Analyze(sampleReport(), nil)
	path := filepath.Join(t.TempDir(), "reports", "eval.md")
	if err := Write(path, analysis); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written report: %v", err)
	}
	if !strings.Contains(string(data), "# Evaluation Report") {
		t.Fatal("written report missing header")
	}
}
