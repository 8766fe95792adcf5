package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/aitdocs/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aitdocs",
		Short: "AI document translation for git repositories",
		Long: `aitdocs translates Markdown, MDX and JavaScript/TypeScript files
through a remote language model while keeping code blocks intact.

Translations are written next to their sources with a language suffix
(README.md becomes README_en.md). Directory runs consult the git
history and a local translation cache, so unchanged files cost no
API calls.

Examples:
  aitdocs text "Здравей свят"          # Translate a string to stdout
  aitdocs file docs/guide.md           # Translate a single file
  aitdocs dir --incremental ./docs     # Translate changed files in a tree
  aitdocs watch ./docs                 # Re-translate whenever files change
  aitdocs build prepare ./docs         # Swap translations in for a build`,
		Version:      internal.Version,
		SilenceUsage: true,
	}

	// Set up shared flags
	setupGlobalFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newTextCommand(flags),
		newFileCommand(flags),
		newDirCommand(flags),
		newWatchCommand(flags),
		newBuildCommand(flags),
		newModelsCommand(flags),
		newHistoryCommand(flags),
	)

	return rootCmd
}

func setupGlobalFlags(cmd *cobra.Command, flags *Flags) {
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.aitdocs.yaml)")
	cmd.PersistentFlags().StringVar(&flags.Provider, "provider", flags.Provider, "Translation provider: openai or gemini")
	cmd.PersistentFlags().StringVar(&flags.APIKey, "api-key", "", "API key (overrides AITDOCS_API_KEY)")
	cmd.PersistentFlags().StringVar(&flags.BaseURL, "base-url", "", "Base URL for OpenAI-compatible endpoints")
	cmd.PersistentFlags().StringVar(&flags.Model, "model", "", "Model name (provider default when empty)")
	cmd.PersistentFlags().StringVarP(&flags.SourceLang, "source", "s", flags.SourceLang, "Source language code, or auto to detect")
	cmd.PersistentFlags().StringVarP(&flags.TargetLang, "target", "t", flags.TargetLang, "Target language code")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

// addPipelineFlags attaches the directory pipeline flags shared by the
// dir and watch commands
func addPipelineFlags(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", "", "Write translations into this directory instead of next to the sources")
	cmd.Flags().StringArrayVar(&flags.IgnorePatterns, "ignore", nil, "Exclude paths matching this pattern (repeatable)")
	cmd.Flags().BoolVar(&flags.Incremental, "incremental", false, "Only translate files changed since the last recorded run")
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", flags.Concurrency, "Number of files translated in parallel")
	cmd.Flags().IntVar(&flags.ChunkSize, "chunk-size", flags.ChunkSize, "Maximum characters per translation request")
	cmd.Flags().BoolVar(&flags.NoCache, "no-cache", false, "Bypass the translation cache")
	cmd.Flags().StringVar(&flags.CacheDir, "cache-dir", "", "Cache directory (default <path>/.aitdocs_cache)")
	cmd.Flags().BoolVar(&flags.Commit, "commit", false, "Commit produced translations")
	cmd.Flags().StringVar(&flags.CommitMessage, "commit-message", "", "Commit message for --commit")
	cmd.Flags().BoolVar(&flags.Push, "push", false, "Push after committing (requires --commit)")
	cmd.Flags().BoolVar(&flags.NoHistory, "no-history", false, "Do not record this run in the history database")
}

func newTextCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "text [flags] <text|->",
		Short: "Translate a string (or stdin with -) to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runText(flags, args[0])
		},
	}
}

func newFileCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [flags] <path>",
		Short: "Translate one file to its sibling output path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(flags, args[0])
		},
	}
	cmd.Flags().IntVar(&flags.ChunkSize, "chunk-size", flags.ChunkSize, "Maximum characters per translation request")
	return cmd
}

func newDirCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir [flags] <path>",
		Short: "Translate all supported files under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDir(flags, args[0], "dir")
		},
	}
	addPipelineFlags(cmd, flags)
	return cmd
}

func newWatchCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <path>",
		Short: "Watch a directory and re-translate on changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(flags, args[0])
		},
	}
	addPipelineFlags(cmd, flags)
	cmd.Flags().DurationVar(&flags.Debounce, "debounce", flags.Debounce, "Quiet period before a change triggers a run")
	return cmd
}

func newBuildCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Swap translated files in and out for documentation builds",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "prepare <path>",
			Short: "Replace sources with their translations, keeping backups",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBuildPrepare(flags, args[0])
			},
		},
		&cobra.Command{
			Use:   "restore <path>",
			Short: "Put backed up sources back in place",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBuildRestore(args[0])
			},
		},
	)
	return cmd
}

func newModelsCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available from the configured endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(flags)
		},
	}
}

func newHistoryCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [flags] <path>",
		Short: "Show past translation runs for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(flags, args[0])
		},
	}
	cmd.Flags().IntVar(&flags.HistoryLimit, "limit", flags.HistoryLimit, "Number of runs to show")
	return cmd
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("translation.provider", cmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("translation.base_url", cmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("translation.model", cmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("translation.source", cmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("translation.target", cmd.PersistentFlags().Lookup("target"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".aitdocs" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".aitdocs")
	}

	// Environment variables
	viper.SetEnvPrefix("AITDOCS")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// ResolveAPIKey retrieves the translation API key: the flag wins, then
// the environment, then the config file
func ResolveAPIKey(flags *Flags) string {
	if flags.APIKey != "" {
		return flags.APIKey
	}

	for _, name := range []string{"AITDOCS_API_KEY", "OPENAI_API_KEY", "ALI_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}

	// Then check config file
	return viper.GetString("translation.api_key")
}
