// internal/cli/query.go
package corpusq

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/corpusq/internal/rag"
)

var (
	queryNChunks  int
	queryFilters  []string
	queryVerbose  bool
	queryNoRerank bool
)

var (
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// queryCmd answers a single question, or starts an interactive loop when no
// question is given.
var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question against the indexed corpus",
	Long: `Query retrieves the nearest chunks for a question and generates a grounded
answer. With a question argument it answers once and exits; without one it
reads questions from stdin until EOF or "exit".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		filter, err := parseFilters(queryFilters)
		if err != nil {
			return err
		}

		retriever, cleanup, err := newRetriever(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		opts := rag.AskOptions{
			NChunks:     queryNChunks,
			Filter:      filter,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			NoReranking: queryNoRerank,
		}

		if len(args) == 1 {
			return answerOne(ctx, cmd.OutOrStdout(), retriever, args[0], opts)
		}
		return queryLoop(ctx, cmd, retriever, opts)
	},
}

// queryLoop reads questions from stdin until EOF or an exit keyword.
func queryLoop(ctx context.Context, cmd *cobra.Command, retriever *rag.Retriever, opts rag.AskOptions) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Interactive query mode. Type a question, or \"exit\" to quit.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}
		if err := answerOne(ctx, out, retriever, question, opts); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func answerOne(ctx context.Context, out io.Writer, retriever *rag.Retriever, question string, opts rag.AskOptions) error {
	result, err := retriever.Ask(ctx, question, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, questionStyle.Render(result.Question))
	fmt.Fprintln(out, answerStyle.Render(result.Answer))
	if len(result.Sources) > 0 {
		fmt.Fprintln(out, sourceStyle.Render(fmt.Sprintf("sources: %s | model: %s | tokens: %d",
			strings.Join(result.Sources, ", "), result.Model, result.TokensUsed)))
	}

	if queryVerbose {
		for _, chunk := range result.ChunksUsed {
			fmt.Fprintln(out, sourceStyle.Render(fmt.Sprintf("[%s] distance=%.4f", chunk.ID, chunk.Distance)))
			fmt.Fprintln(out, chunk.Content)
		}
	}
	if DebugEnabled() {
		pp.Println(result)
	}
	return nil
}

// parseFilters turns repeated key=value flags into a metadata filter.
func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", pair)
		}
		filter[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return filter, nil
}

func init() {
	queryCmd.Flags().IntVarP(&queryNChunks, "n-chunks", "n", 0, "chunks to retrieve per question (0 = config default)")
	queryCmd.Flags().StringArrayVar(&queryFilters, "filter", nil, "metadata filter, key=value (repeatable)")
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "print the retrieved chunks with the answer")
	queryCmd.Flags().BoolVar(&queryNoRerank, "no-rerank", false, "disable reranking for this query")
	rootCmd.AddCommand(queryCmd)
}
