// internal/eval/evaluator.go
// Package eval drives the retriever over a labeled question set, scores
// generated answers against expected ones, and persists the run as a JSON
// report.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/corpusq/internal/rag"
)

// Asker is the slice of the retriever the evaluator depends on.
type Asker interface {
	Ask(ctx context.Context, question string, opts rag.AskOptions) (rag.AnswerResult, error)
}

// Options tunes an evaluation run.
type Options struct {
	NChunks        int
	MaxQuestions   int // 0 = no limit
	Model          string
	EmbeddingModel string
}

// Evaluate runs Ask over every dataset entry, timing each call. An ask that
// fails becomes a failed record with the error text; the loop always
// continues to the next question. This is the only place in the pipeline
// where exceptions turn into data.
func Evaluate(ctx context.Context, asker Asker, entries []DatasetEntry, opts Options) EvaluationReport {
	if opts.MaxQuestions > 0 && opts.MaxQuestions < len(entries) {
		entries = entries[:opts.MaxQuestions]
	}

	report := EvaluationReport{
		Metadata: RunMetadata{
			Timestamp:      time.Now().Format(time.RFC3339),
			RunID:          uuid.NewString(),
			Model:          opts.Model,
			EmbeddingModel: opts.EmbeddingModel,
			NChunks:        opts.NChunks,
			TotalQuestions: len(entries),
		},
		Results: make([]EvaluationRecord, 0, len(entries)),
	}

	for i, entry := range entries {
		log.Printf("[%d/%d] evaluating: %s", i+1, len(entries), entry.Question)

		start := time.Now()
		result, err := asker.Ask(ctx, entry.Question, rag.AskOptions{
			NChunks:      opts.NChunks,
			SystemPrompt: entry.SystemPrompt,
		})
		elapsed := time.Since(start).Seconds()

		if err != nil {
			log.Printf("[%d/%d] failed: %v", i+1, len(entries), err)
			errText := err.Error()
			report.Results = append(report.Results, EvaluationRecord{
				Question: entry.Question,
				Expected: entry.ExpectedAnswer,
				Sources:  []string{},
				Success:  false,
				Error:    &errText,
			})
			report.Metadata.Failed++
			continue
		}

		report.Results = append(report.Results, EvaluationRecord{
			Question:    entry.Question,
			Answer:      result.Answer,
			Expected:    entry.ExpectedAnswer,
			Sources:     result.Sources,
			Tokens:      result.TokensUsed,
			TimeSeconds: elapsed,
			Success:     true,
		})
		report.Metadata.Successful++
		report.Metadata.TotalTime += elapsed
		report.Metadata.TotalTokens += result.TokensUsed
	}

	if report.Metadata.Successful > 0 {
		report.Metadata.AvgTime = report.Metadata.TotalTime / float64(report.Metadata.Successful)
		report.Metadata.AvgTokens = float64(report.Metadata.TotalTokens) / float64(report.Metadata.Successful)
	}
	return report
}

// WriteReport persists the report as indented JSON, creating parent
// directories as needed.
func WriteReport(path string, report EvaluationReport) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReadReport loads a persisted report.
func ReadReport(path string) (EvaluationReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EvaluationReport{}, fmt.Errorf("read report: %w", err)
	}
	var report EvaluationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return EvaluationReport{}, fmt.Errorf("parse report: %w", err)
	}
	return report, nil
}
