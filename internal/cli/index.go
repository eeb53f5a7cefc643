// internal/cli/index.go
package corpusq

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/corpusq/internal/indexer"
)

var (
	indexReset     bool
	indexBatchSize int
)

// indexCmd embeds a chunk file and loads it into the vector store.
var indexCmd = &cobra.Command{
	Use:   "index <chunks-file>",
	Short: "Embed a chunk file and load it into the vector store",
	Long: `Index reads a JSONL or JSON chunk file, validates each chunk against the
chunk schema, embeds valid chunks in batches, and upserts them into the
configured collection. Re-running with the same file is idempotent: chunk ids
overwrite in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		embedder, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		st, err := newStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ix, err := indexer.New(embedder, st, cfg.CollectionName())
		if err != nil {
			return err
		}

		if indexReset {
			if err := ix.Reset(ctx); err != nil {
				return fmt.Errorf("reset collection: %w", err)
			}
		}

		loaded, err := indexer.Load(args[0])
		if err != nil {
			return err
		}

		batchSize := indexBatchSize
		if batchSize <= 0 {
			batchSize = cfg.IndexBatchSize()
		}
		summary, err := ix.Index(ctx, loaded.Chunks, batchSize)
		if err != nil {
			return err
		}
		// Parse failures count against the run like any other failed chunk.
		summary.Errors += loaded.ParseErrors
		summary.Total += loaded.ParseErrors
		if summary.Total > 0 {
			summary.SuccessRate = float64(summary.Indexed) / float64(summary.Total)
		}

		printIndexSummary(cmd, summary)

		stats, err := ix.Stats(ctx)
		if err != nil {
			return fmt.Errorf("collection stats: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Collection %q now holds %d chunks\n", stats.CollectionName, stats.TotalChunks)
		for chunkType, count := range stats.ChunkTypes {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %d\n", chunkType, count)
		}

		if summary.Errors > 0 {
			return fmt.Errorf("indexing completed with %d failed chunks", summary.Errors)
		}
		return nil
	},
}

func printIndexSummary(cmd *cobra.Command, summary indexer.Summary) {
	success := color.New(color.FgGreen).SprintFunc()
	failure := color.New(color.FgRed).SprintFunc()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed: %s\n", success(summary.Indexed))
	if summary.Errors > 0 {
		fmt.Fprintf(out, "Errors:  %s\n", failure(summary.Errors))
	} else {
		fmt.Fprintf(out, "Errors:  %d\n", summary.Errors)
	}
	fmt.Fprintf(out, "Success rate: %.1f%%\n", summary.SuccessRate*100)
}

func init() {
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "drop the collection before indexing")
	indexCmd.Flags().IntVar(&indexBatchSize, "batch-size", 0, "chunks per embedding batch (0 = config default)")
	rootCmd.AddCommand(indexCmd)
}
