// internal/cli/show.go
package corpusq

import "github.com/spf13/cobra"

// showCmd groups read-only inspection commands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Inspect application state",
}

func init() {
	rootCmd.AddCommand(showCmd)
}
