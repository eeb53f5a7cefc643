package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local is a filesystem-backed Store. Each collection lives in a single JSONL
// segment under the root directory, one record per line, loaded into memory
// on first access and rewritten whole on upsert. Suited to offline indexing
// and querying, not concurrent writers.
type Local struct {
	root        string
	collections map[string]*localCollection
}

type localCollection struct {
	records map[string]Record
	order   []string // insertion order, for stable Peek output
	dim     int
}

// NewLocal opens a local store rooted at dir, creating the directory if needed.
func NewLocal(dir string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Local{
		root:        dir,
		collections: make(map[string]*localCollection),
	}, nil
}

func (s *Local) segmentPath(collection string) string {
	return filepath.Join(s.root, collection+".jsonl")
}

// HasCollection reports whether the collection has been created.
func (s *Local) HasCollection(_ context.Context, collection string) (bool, error) {
	if _, ok := s.collections[collection]; ok {
		return true, nil
	}
	_, err := os.Stat(s.segmentPath(collection))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat collection %s: %w", collection, err)
}

// DropCollection removes the collection's segment and cached records.
func (s *Local) DropCollection(_ context.Context, collection string) error {
	delete(s.collections, collection)
	if err := os.Remove(s.segmentPath(collection)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove collection %s: %w", collection, err)
	}
	return nil
}

// Upsert merges records into the collection and rewrites its segment.
func (s *Local) Upsert(ctx context.Context, collection string, records []Record) error {
	col, err := s.load(ctx, collection, true)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if strings.TrimSpace(rec.ID) == "" {
			return fmt.Errorf("record with empty id")
		}
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("record %s has no embedding", rec.ID)
		}
		if col.dim == 0 {
			col.dim = len(rec.Embedding)
		} else if len(rec.Embedding) != col.dim {
			return fmt.Errorf("record %s embedding dimension %d does not match collection dimension %d", rec.ID, len(rec.Embedding), col.dim)
		}
		if _, exists := col.records[rec.ID]; !exists {
			col.order = append(col.order, rec.ID)
		}
		col.records[rec.ID] = rec
	}

	return s.flush(collection, col)
}

// Query scores every record against the query embedding and returns the n
// nearest, ascending by cosine distance.
func (s *Local) Query(ctx context.Context, collection string, embedding []float32, n int, filter map[string]string) ([]QueryResult, error) {
	col, err := s.load(ctx, collection, false)
	if err != nil {
		return nil, err
	}
	if col.dim != 0 && len(embedding) != col.dim {
		return nil, fmt.Errorf("query embedding dimension %d does not match collection dimension %d", len(embedding), col.dim)
	}

	queryNorm := vectorNorm(embedding)
	results := make([]QueryResult, 0, len(col.records))
	for _, id := range col.order {
		rec := col.records[id]
		if len(filter) > 0 && !matchesFilter(rec.Metadata, filter) {
			continue
		}
		score := cosineSimilarity(embedding, rec.Embedding, queryNorm)
		results = append(results, QueryResult{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: rec.Metadata,
			Distance: 1 - score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if n > 0 && n < len(results) {
		results = results[:n]
	}
	return results, nil
}

// Count returns the number of records in the collection.
func (s *Local) Count(ctx context.Context, collection string) (int, error) {
	col, err := s.load(ctx, collection, false)
	if err != nil {
		return 0, err
	}
	return len(col.records), nil
}

// Peek returns up to limit records in insertion order.
func (s *Local) Peek(ctx context.Context, collection string, limit int) ([]Record, error) {
	col, err := s.load(ctx, collection, false)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, limit)
	for _, id := range col.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, col.records[id])
	}
	return out, nil
}

// Close is a no-op for the local store; segments are flushed on every upsert.
func (s *Local) Close() error { return nil }

func (s *Local) load(ctx context.Context, collection string, create bool) (*localCollection, error) {
	if col, ok := s.collections[collection]; ok {
		return col, nil
	}

	col := &localCollection{records: make(map[string]Record)}
	file, err := os.Open(s.segmentPath(collection))
	if err != nil {
		if os.IsNotExist(err) {
			if !create {
				return nil, fmt.Errorf("collection %s does not exist", collection)
			}
			s.collections[collection] = col
			return col, nil
		}
		return nil, fmt.Errorf("open collection %s: %w", collection, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parse collection %s line %d: %w", collection, lineNo, err)
		}
		if col.dim == 0 {
			col.dim = len(rec.Embedding)
		}
		if _, exists := col.records[rec.ID]; !exists {
			col.order = append(col.order, rec.ID)
		}
		col.records[rec.ID] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}

	s.collections[collection] = col
	return col, nil
}

// flush rewrites the collection segment atomically via a temp file rename.
func (s *Local) flush(collection string, col *localCollection) error {
	tmp, err := os.CreateTemp(s.root, collection+".jsonl.tmp")
	if err != nil {
		return fmt.Errorf("create segment temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := bufio.NewWriter(tmp)
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	for _, id := range col.order {
		if err := encoder.Encode(col.records[id]); err != nil {
			tmp.Close()
			return fmt.Errorf("write record %s: %w", id, err)
		}
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush segment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close segment temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.segmentPath(collection)); err != nil {
		return fmt.Errorf("replace segment: %w", err)
	}
	return nil
}

func cosineSimilarity(a, b []float32, normA float64) float64 {
	if normA == 0 {
		return 0
	}
	normB := vectorNorm(b)
	if normB == 0 {
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float32) float64 {
	sum := 0.0
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}
