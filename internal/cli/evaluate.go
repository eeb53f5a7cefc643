// internal/cli/evaluate.go
package corpusq

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/corpusq/internal/eval"
)

var (
	evalOutput       string
	evalNChunks      int
	evalMaxQuestions int
)

// evaluateCmd runs the full question set through the retriever and persists
// the scored run as JSON.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <dataset.jsonl>",
	Short: "Run a labeled question set through the pipeline and save the results",
	Long: `Evaluate loads a JSONL dataset of chat-format records, asks every question
against the indexed corpus, and writes an evaluation report. A question that
fails is recorded and the run continues; the command exits non-zero if any
question failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		entries, err := eval.LoadDataset(args[0])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("dataset %s holds no usable questions", args[0])
		}

		retriever, cleanup, err := newRetriever(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		nChunks := evalNChunks
		if nChunks <= 0 {
			nChunks = cfg.RetrievalChunkCount()
		}

		report := eval.Evaluate(ctx, retriever, entries, eval.Options{
			NChunks:        nChunks,
			MaxQuestions:   evalMaxQuestions,
			Model:          retriever.Model(),
			EmbeddingModel: cfg.EmbeddingModel,
		})

		if err := eval.WriteReport(evalOutput, report); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		success := color.New(color.FgGreen).SprintFunc()
		failure := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(out, "Evaluated %d questions: %s succeeded, %s failed\n",
			report.Metadata.TotalQuestions,
			success(report.Metadata.Successful),
			failure(report.Metadata.Failed))
		fmt.Fprintf(out, "Report written to %s\n", evalOutput)

		if report.Metadata.Failed > 0 {
			return fmt.Errorf("%d questions failed", report.Metadata.Failed)
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalOutput, "output", "o", "corpusqData/eval_results.json", "path for the evaluation JSON")
	evaluateCmd.Flags().IntVarP(&evalNChunks, "n-chunks", "n", 0, "chunks to retrieve per question (0 = config default)")
	evaluateCmd.Flags().IntVar(&evalMaxQuestions, "max-questions", 0, "cap the number of questions (0 = all)")
	rootCmd.AddCommand(evaluateCmd)
}
