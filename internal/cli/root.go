// internal/cli/root.go
package corpusq

import (
	"fmt"
	"os"

	"github.com/mwiater/corpusq/internal/appconfig"
	"github.com/mwiater/corpusq/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "corpusq",
	Short:         "corpusq — index a chunked corpus and answer questions against it",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := appconfig.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg.ConfigPath = cfgFile

		for _, override := range []struct {
			flag  string
			apply func()
		}{
			{"debug", func() { cfg.Debug = viper.GetBool("debug") }},
			{"logFile", func() { cfg.LogFile = viper.GetString("logFile") }},
			{"collection", func() { cfg.Collection = viper.GetString("collection") }},
			{"storePath", func() { cfg.StorePath = viper.GetString("storePath") }},
			{"embeddingModel", func() { cfg.EmbeddingModel = viper.GetString("embeddingModel") }},
			{"provider", func() { cfg.Provider = viper.GetString("provider") }},
		} {
			if cmd.Flags().Changed(override.flag) {
				override.apply()
			}
		}

		// Secrets and backend selection come from the environment, never the
		// config file. This is the only place the process reads them.
		cfg.ProviderEnv = os.Getenv("LLM_PROVIDER")
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
		cfg.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
		currentConfig = cfg

		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().String("collection", "", "vector store collection name")
	rootCmd.PersistentFlags().String("storePath", "", "local vector store directory")
	rootCmd.PersistentFlags().String("embeddingModel", "", "embedding model name")
	rootCmd.PersistentFlags().String("provider", "", "LLM backend: ollama, openai, or anthropic")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("collection", rootCmd.PersistentFlags().Lookup("collection"))
	_ = viper.BindPFlag("storePath", rootCmd.PersistentFlags().Lookup("storePath"))
	_ = viper.BindPFlag("embeddingModel", rootCmd.PersistentFlags().Lookup("embeddingModel"))
	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool {
	return currentConfig != nil && currentConfig.Debug
}
