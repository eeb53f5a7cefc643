package rag

import (
	"fmt"
	"strings"
)

const contextDelimiter = "\n---\n"

// DefaultSystemPrompt is the grounding contract sent when the caller does
// not supply a system prompt: answer only from the supplied context, cite
// chunk ids, and admit when the context is insufficient.
const DefaultSystemPrompt = `You are a precise assistant answering questions about a document corpus.
Answer ONLY using the context provided. Cite the chunk ids you used in your answer, e.g. [chunk-42].
If the context does not contain enough information to answer, say so explicitly instead of guessing.`

// BuildContext concatenates chunk contents into one context block. Each
// chunk is prefixed with its 1-based position and id so the model's
// citations map back to verifiable sources.
func BuildContext(chunks []RetrievedChunk) string {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[%d] (id: %s)\n%s", i+1, chunk.ID, strings.TrimSpace(chunk.Content)))
	}
	return strings.Join(parts, contextDelimiter)
}

// BuildUserPrompt assembles the final grounded prompt for the model.
func BuildUserPrompt(question, contextBlock string) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nAnswer using only the context above, citing chunk ids.")
	return b.String()
}
