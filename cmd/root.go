package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/gamehelp/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	storagePath string
	configPath  string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gamehelp",
	Short: "Ask a game guide assistant from your terminal",
	Long: `A terminal client for a retrieval-augmented game guide assistant.

Questions go to a remote answer service together with a spoiler tolerance.
Answers come back with the sources they were drawn from. The conversation,
the session and the selected game are kept on disk between runs.

Features:
  • Interactive chat with markdown-rendered answers
  • Spoiler levels: none, light hints, some, full
  • Per-game themes and thread resets
  • Transcript export (JSONL, Markdown, YAML, JSON)

Quick Start:
  gamehelp chat                          # Open the chat
  gamehelp ask "Where is the forge?"     # One-shot question
  gamehelp game elden-ring               # Switch game (starts a new topic)
  gamehelp export --format md            # Export the current thread

Configuration is read from ~/.gamehelp/config.yaml and GAMEHELP_* variables.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
		internal.LoadDotEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer internal.SyncLogs()
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		internal.SyncLogs()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom state database location (default ~/.gamehelp/state.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.gamehelp/config.yaml)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
