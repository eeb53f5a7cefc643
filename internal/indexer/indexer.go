// internal/indexer/indexer.go
// Package indexer materializes pre-chunked corpus files as embedded records
// in a vector store collection.
package indexer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/corpusq/internal/embedding"
	"github.com/mwiater/corpusq/internal/store"
)

// Indexer embeds chunks in batches and upserts them into one collection.
type Indexer struct {
	embedder   embedding.Embedder
	store      store.Store
	collection string
}

// New binds an Indexer to an embedder, a store, and a collection name.
func New(embedder embedding.Embedder, st store.Store, collection string) (*Indexer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("collection name is empty")
	}
	return &Indexer{embedder: embedder, store: st, collection: collection}, nil
}

// Load parses a chunk file. A .jsonl file holds one JSON object per line; a
// .json file holds {"chunks": [...]}. Malformed JSONL lines are logged,
// skipped, and counted — they never abort the load.
func Load(path string) (LoadResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return loadJSONL(path)
	case ".json":
		return loadJSON(path)
	default:
		return LoadResult{}, fmt.Errorf("unsupported chunk file extension %q (expected .json or .jsonl)", filepath.Ext(path))
	}
}

func loadJSONL(path string) (LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("open chunk file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	var result LoadResult
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := validateChunkJSON(line); err != nil {
			log.Printf("skipping chunk file line %d: %v", lineNo, err)
			result.ParseErrors++
			continue
		}
		var chunk Chunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			log.Printf("skipping chunk file line %d: %v", lineNo, err)
			result.ParseErrors++
			continue
		}
		result.Chunks = append(result.Chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return LoadResult{}, fmt.Errorf("read chunk file: %w", err)
	}
	return result, nil
}

func loadJSON(path string) (LoadResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read chunk file: %w", err)
	}
	var wrapper struct {
		Chunks []Chunk `json:"chunks"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return LoadResult{}, fmt.Errorf("parse chunk file: %w", err)
	}
	return LoadResult{Chunks: wrapper.Chunks}, nil
}

// Reset drops the collection so a subsequent Index starts clean.
func (ix *Indexer) Reset(ctx context.Context) error {
	log.Printf("resetting collection %s", ix.collection)
	return ix.store.DropCollection(ctx, ix.collection)
}

// Index embeds and upserts chunks in batches of batchSize. Chunks missing an
// id or content are counted as errors and excluded from their batch. A
// failed embedding or upsert call fails its whole batch — every item in it
// counts as an error — and processing continues with the next batch.
func (ix *Indexer) Index(ctx context.Context, chunks []Chunk, batchSize int) (Summary, error) {
	if batchSize <= 0 {
		batchSize = 32
	}

	summary := Summary{Total: len(chunks)}
	start := time.Now()

	for offset := 0; offset < len(chunks); offset += batchSize {
		end := offset + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[offset:end]

		valid := make([]Chunk, 0, len(batch))
		for _, chunk := range batch {
			if strings.TrimSpace(chunk.ID) == "" || strings.TrimSpace(chunk.Content) == "" {
				log.Printf("skipping invalid chunk (id=%q): missing id or content", chunk.ID)
				summary.Errors++
				continue
			}
			valid = append(valid, chunk)
		}
		if len(valid) == 0 {
			continue
		}

		documents := make([]string, len(valid))
		for i, chunk := range valid {
			documents[i] = chunk.Content
		}

		vectors, err := ix.embedder.EmbedBatch(ctx, documents)
		if err != nil {
			log.Printf("batch %d-%d failed to embed: %v", offset, end, err)
			summary.Errors += len(valid)
			continue
		}

		records := make([]store.Record, len(valid))
		for i, chunk := range valid {
			meta := make(map[string]any, len(chunk.Metadata)+1)
			for key, val := range chunk.Metadata {
				meta[key] = val
			}
			if chunk.ChunkType != "" {
				meta["chunk_type"] = chunk.ChunkType
			}
			records[i] = store.Record{
				ID:        chunk.ID,
				Document:  chunk.Content,
				Metadata:  meta,
				Embedding: vectors[i],
			}
		}

		if err := ix.store.Upsert(ctx, ix.collection, records); err != nil {
			log.Printf("batch %d-%d failed to upsert: %v", offset, end, err)
			summary.Errors += len(valid)
			continue
		}

		summary.Indexed += len(valid)
		log.Printf("indexed %d/%d chunks into %s", summary.Indexed, summary.Total, ix.collection)
	}

	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Indexed) / float64(summary.Total)
	}
	log.Printf("indexing finished in %s: %d indexed, %d errors", time.Since(start).Truncate(time.Millisecond), summary.Indexed, summary.Errors)
	return summary, nil
}

// Stats samples up to 100 records from the collection for a sanity check.
func (ix *Indexer) Stats(ctx context.Context) (Stats, error) {
	count, err := ix.store.Count(ctx, ix.collection)
	if err != nil {
		return Stats{}, err
	}
	sample, err := ix.store.Peek(ctx, ix.collection, 100)
	if err != nil {
		return Stats{}, err
	}

	types := make(map[string]int)
	for _, rec := range sample {
		chunkType := "unknown"
		if val, ok := rec.Metadata["chunk_type"]; ok {
			chunkType = fmt.Sprintf("%v", val)
		}
		types[chunkType]++
	}

	return Stats{
		TotalChunks:    count,
		CollectionName: ix.collection,
		ChunkTypes:     types,
	}, nil
}
