// internal/cli/report.go
package corpusq

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/corpusq/internal/eval"
	"github.com/mwiater/corpusq/internal/report"
)

var reportOutput string

// reportCmd renders a Markdown analysis from a persisted evaluation run.
var reportCmd = &cobra.Command{
	Use:   "report <eval-results.json>",
	Short: "Render a Markdown analysis of an evaluation run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		run, err := eval.ReadReport(args[0])
		if err != nil {
			return err
		}

		analysis := report.Analyze(run, cfg.RefusalList())
		if err := report.Write(reportOutput, analysis); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s (avg similarity %.3f across %d questions)\n",
			reportOutput, analysis.AvgSimilarity, len(analysis.Questions))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "corpusqData/eval_report.md", "path for the Markdown report")
	rootCmd.AddCommand(reportCmd)
}
