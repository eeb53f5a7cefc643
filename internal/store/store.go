// Package store persists embedded chunk collections and serves
// nearest-neighbor queries over them.
package store

import (
	"context"
	"fmt"
)

// Record is the persisted unit of a collection: one embedded document plus
// its metadata. Records are keyed by ID; upserting an existing ID overwrites
// the previous record.
type Record struct {
	ID        string         `json:"id"`
	Document  string         `json:"document"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding"`
}

// QueryResult is a query-time view of a Record plus its distance from the
// query vector. Smaller distance means more similar.
type QueryResult struct {
	ID       string
	Document string
	Metadata map[string]any
	Distance float64
}

// Store is the contract the indexer and retriever depend on. Implementations
// are not required to be safe for concurrent use.
type Store interface {
	// HasCollection reports whether the named collection exists.
	HasCollection(ctx context.Context, collection string) (bool, error)
	// DropCollection removes the named collection and all its records.
	// Dropping a collection that does not exist is not an error.
	DropCollection(ctx context.Context, collection string) error
	// Upsert writes records into the collection, creating it on first write.
	// Existing IDs are overwritten.
	Upsert(ctx context.Context, collection string, records []Record) error
	// Query returns the n nearest records to the query embedding, ascending
	// by distance, optionally restricted to records whose metadata exactly
	// matches every key in filter.
	Query(ctx context.Context, collection string, embedding []float32, n int, filter map[string]string) ([]QueryResult, error)
	// Count returns the number of records in the collection.
	Count(ctx context.Context, collection string) (int, error)
	// Peek returns up to limit records for inspection, in unspecified order.
	Peek(ctx context.Context, collection string, limit int) ([]Record, error)
	// Close releases any resources held by the store.
	Close() error
}

// matchesFilter reports whether the record's metadata satisfies every
// exact-match constraint in filter. Values are compared by their string form.
func matchesFilter(meta map[string]any, filter map[string]string) bool {
	for key, want := range filter {
		val, ok := meta[key]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", val) != want {
			return false
		}
	}
	return true
}
