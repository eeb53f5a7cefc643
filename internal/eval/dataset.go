// internal/eval/dataset.go
package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

type datasetMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type datasetRecord struct {
	Messages []datasetMessage `json:"messages"`
}

// LoadDataset reads a JSONL file of chat-format records, pulling the
// question from the user message, the expected answer from the assistant
// message, and an optional system prompt. Malformed or incomplete lines are
// logged and skipped; they count in neither numerator nor denominator.
func LoadDataset(path string) ([]DatasetEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	var entries []DatasetEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record datasetRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			log.Printf("skipping dataset line %d: %v", lineNo, err)
			continue
		}

		var entry DatasetEntry
		for _, msg := range record.Messages {
			switch msg.Role {
			case "system":
				entry.SystemPrompt = msg.Content
			case "user":
				entry.Question = msg.Content
			case "assistant":
				entry.ExpectedAnswer = msg.Content
			}
		}
		if strings.TrimSpace(entry.Question) == "" || strings.TrimSpace(entry.ExpectedAnswer) == "" {
			log.Printf("skipping dataset line %d: missing user or assistant message", lineNo)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return entries, nil
}
