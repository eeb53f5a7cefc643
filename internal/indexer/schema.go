// internal/indexer/schema.go
package indexer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// chunkSchemaJSON is the structural contract for one chunk record. Content
// emptiness is checked again at index time; the schema catches records of
// the wrong shape early, with a line-level error message.
const chunkSchemaJSON = `{
  "type": "object",
  "required": ["id", "content"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "content": {"type": "string"},
    "metadata": {"type": "object"},
    "chunk_type": {"type": "string"}
  }
}`

var chunkSchema = gojsonschema.NewStringLoader(chunkSchemaJSON)

// validateChunkJSON checks one raw JSON record against the chunk schema.
func validateChunkJSON(raw string) error {
	result, err := gojsonschema.Validate(chunkSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("validate chunk record: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return fmt.Errorf("invalid chunk record: %s", strings.Join(issues, "; "))
	}
	return nil
}
