// internal/eval/evaluator_test.go
package eval

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwiater/corpusq/internal/rag"
)

// scriptedAsker answers from a fixed script, erroring on listed questions.
type scriptedAsker struct {
	failOn map[string]error
	calls  int
}

func (s *scriptedAsker) Ask(_ context.Context, question string, _ rag.AskOptions) (rag.AnswerResult, error) {
	s.calls++
	if err, ok := s.failOn[question]; ok {
		return rag.AnswerResult{}, err
	}
	return rag.AnswerResult{
		Question:   question,
		Answer:     "answer to " + question,
		Sources:    []string{"c1"},
		TokensUsed: 10,
	}, nil
}

func dataset(questions ...string) []DatasetEntry {
	entries := make([]DatasetEntry, 0, len(questions))
	for _, q := range questions {
		entries = append(entries, DatasetEntry{Question: q, ExpectedAnswer: "expected " + q})
	}
	return entries
}

func TestEvaluateContinuesPastFailures(t *testing.T) {
	asker := &scriptedAsker{failOn: map[string]error{
		"q3": errors.New("embedding backend unreachable"),
	}}
	entries := dataset("q1", "q2", "q3", "q4", "q5")

	report := Evaluate(context.Background(), asker, entries, Options{NChunks: 5, Model: "llama3"})

	if asker.calls != 5 {
		t.Fatalf("expected all 5 questions asked, got %d", asker.calls)
	}
	meta := report.Metadata
	if meta.TotalQuestions != 5 || meta.Successful != 4 || meta.Failed != 1 {
		t.Fatalf("unexpected aggregates: total=%d successful=%d failed=%d",
			meta.TotalQuestions, meta.Successful, meta.Failed)
	}
	if len(report.Results) != 5 {
		t.Fatalf("expected 5 records, got %d", len(report.Results))
	}

	failed := report.Results[2]
	if failed.Success {
		t.Fatal("expected question 3 record to be marked failed")
	}
	if failed.Error == nil || *failed.Error != "embedding backend unreachable" {
		t.Fatalf("expected error text preserved, got %v", failed.Error)
	}
	if failed.Tokens != 0 || failed.TimeSeconds != 0 {
		t.Fatalf("failed record should carry zero tokens and time, got tokens=%d time=%f",
			failed.Tokens, failed.TimeSeconds)
	}
	if failed.Sources == nil || len(failed.Sources) != 0 {
		t.Fatalf("failed record should carry an empty sources list, got %v", failed.Sources)
	}
}

func TestEvaluateAggregates(t *testing.T) {
	asker := &scriptedAsker{}
	report := Evaluate(context.Background(), asker, dataset("q1", "q2"), Options{Model: "llama3"})

	meta := report.Metadata
	if meta.TotalTokens != 20 {
		t.Fatalf("expected 20 total tokens, got %d", meta.TotalTokens)
	}
	if meta.AvgTokens != 10 {
		t.Fatalf("expected avg 10 tokens, got %f", meta.AvgTokens)
	}
	if meta.Model != "llama3" {
		t.Fatalf("expected model recorded, got %q", meta.Model)
	}
	if meta.RunID == "" {
		t.Fatal("expected a run id")
	}
	if meta.Timestamp == "" {
		t.Fatal("expected a timestamp")
	}
}

func TestEvaluateAllFailedSkipsAverages(t *testing.T) {
	asker := &scriptedAsker{failOn: map[string]error{"q1": errors.New("boom")}}
	report := Evaluate(context.Background(), asker, dataset("q1"), Options{})

	if report.Metadata.AvgTime != 0 || report.Metadata.AvgTokens != 0 {
		t.Fatalf("expected zero averages with no successes, got time=%f tokens=%f",
			report.Metadata.AvgTime, report.Metadata.AvgTokens)
	}
}

func TestEvaluateMaxQuestions(t *testing.T) {
	asker := &scriptedAsker{}
	report := Evaluate(context.Background(), asker, dataset("q1", "q2", "q3"), Options{MaxQuestions: 2})

	if report.Metadata.TotalQuestions != 2 || asker.calls != 2 {
		t.Fatalf("expected limit of 2 questions, got total=%d calls=%d",
			report.Metadata.TotalQuestions, asker.calls)
	}
}

func TestWriteAndReadReportRoundTrip(t *testing.T) {
	asker := &scriptedAsker{failOn: map[string]error{"q2": errors.New("boom")}}
	report := Evaluate(context.Background(), asker, dataset("q1", "q2", "q3"), Options{NChunks: 3})

	path := filepath.Join(t.TempDir(), "runs", "eval.json")
	if err := WriteReport(path, report); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	loaded, err := ReadReport(path)
	if err != nil {
		t.Fatalf("ReadReport failed: %v", err)
	}
	if len(loaded.Results) != len(report.Results) {
		t.Fatalf("round trip lost records: wrote %d, read %d", len(report.Results), len(loaded.Results))
	}
	if loaded.Metadata.NChunks != 3 {
		t.Fatalf("round trip lost metadata, n_chunks=%d", loaded.Metadata.NChunks)
	}

	// The failed record's error must serialize as a JSON string, not null.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read raw report: %v", err)
	}
	var generic struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("parse raw report: %v", err)
	}
	if generic.Results[1]["error"] == nil {
		t.Fatal("expected non-null error field on failed record")
	}
	if generic.Results[0]["error"] != nil {
		t.Fatalf("expected null error field on successful record, got %v", generic.Results[0]["error"])
	}
}
