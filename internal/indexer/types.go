// internal/indexer/types.go
package indexer

// Chunk is one unit of pre-chunked corpus text as read from an input file.
// The id must be stable across re-indexing runs so that upserts overwrite
// rather than duplicate.
type Chunk struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ChunkType string         `json:"chunk_type,omitempty"`
}

// LoadResult is the outcome of parsing a chunk file: the usable chunks plus
// the count of malformed records that were skipped.
type LoadResult struct {
	Chunks      []Chunk
	ParseErrors int
}

// Summary reports an indexing run. Indexed+Errors always equals Total.
type Summary struct {
	Indexed     int     `json:"indexed"`
	Errors      int     `json:"errors"`
	Total       int     `json:"total"`
	SuccessRate float64 `json:"success_rate"`
}

// Stats is a post-indexing sanity check sampled from the collection.
type Stats struct {
	TotalChunks    int            `json:"total_chunks"`
	CollectionName string         `json:"collection_name"`
	ChunkTypes     map[string]int `json:"chunk_types_sample"`
}
