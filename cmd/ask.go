package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/iksnae/gamehelp/internal"
	"github.com/spf13/cobra"
)

var (
	askSpoiler    string
	askMatchCount int
	askDocFilter  string
	askDev        bool
	askGame       string
	askNew        bool
	askPlain      bool
	askSources    bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Send one question to the answer service and print the answer.

The question continues the current thread. Use --new to start a fresh topic
first, or --game to switch games (which also starts a fresh topic).

Spoiler levels: none (0), light (33), some (66), full (100). Other numbers
snap to the nearest level.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true, func(o *internal.ControllerOptions) error {
			return applyAskFlags(cmd, o)
		})
		if err != nil {
			return err
		}
		defer a.Close()
		developer := developerMode(cmd, a)

		if askGame != "" {
			g, err := a.controller.SelectGame(askGame)
			if err != nil {
				return err
			}
			internal.LogInfo("Switched to %s", g.Label)
		}
		if askNew {
			a.controller.ResetThread()
		}

		question := strings.Join(args, " ")
		var answer internal.ChatMessage
		err = internal.ShowProgress(cmd.Context(), "Asking the guide", func(ctx context.Context) error {
			var askErr error
			answer, askErr = a.controller.Ask(ctx, question)
			return askErr
		})
		if err != nil {
			if errors.Is(err, internal.ErrEmptyQuery) {
				return fmt.Errorf("nothing to ask: the question is empty")
			}
			return errors.New(describeError(err, developer))
		}

		var renderer *glamour.TermRenderer
		if !askPlain && internal.IsTerminal() {
			renderer = newMarkdownRenderer(defaultWrapWidth)
		}
		limit := internal.MaxInlineSources
		if askSources {
			limit = internal.MaxDetailSources
		}

		out := cmd.OutOrStdout()
		if renderer == nil {
			fmt.Fprintln(out, strings.TrimSpace(answer.Content))
			if sources := renderSources(answer.Sources, limit); sources != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, sources)
			}
			return nil
		}
		total := len(a.controller.Messages())
		fmt.Fprintln(out, renderMessage(total, total, answer, renderer, defaultWrapWidth, limit))
		return nil
	},
}

// applyAskFlags overrides the configured request options with explicit flags
func applyAskFlags(cmd *cobra.Command, o *internal.ControllerOptions) error {
	flags := cmd.Flags()
	if flags.Changed("spoiler") {
		level, err := internal.ParseSpoiler(askSpoiler)
		if err != nil {
			return err
		}
		o.Spoiler = level
	}
	if flags.Changed("match-count") {
		if askMatchCount < 1 {
			return fmt.Errorf("--match-count must be positive, got %d", askMatchCount)
		}
		n := askMatchCount
		o.MatchCount = &n
	}
	if flags.Changed("doc-filter") {
		o.DocFilter = internal.ParseDocFilter(askDocFilter)
	}
	if flags.Changed("dev") {
		dev := askDev
		o.DeveloperMode = &dev
	}
	return nil
}

func developerMode(cmd *cobra.Command, a *app) bool {
	if cmd.Flags().Changed("dev") {
		return askDev
	}
	return a.cfg.DeveloperMode != nil && *a.cfg.DeveloperMode
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askSpoiler, "spoiler", "s", "", "Spoiler level: none, light, some, full or 0-100")
	askCmd.Flags().IntVar(&askMatchCount, "match-count", 0, "Number of documents the service should retrieve")
	askCmd.Flags().StringVar(&askDocFilter, "doc-filter", "", `Restrict retrieval to a document set ("null" sends an explicit null)`)
	askCmd.Flags().BoolVar(&askDev, "dev", false, "Ask the service for developer diagnostics and show error details")
	askCmd.Flags().StringVarP(&askGame, "game", "g", "", "Switch to this game before asking")
	askCmd.Flags().BoolVar(&askNew, "new", false, "Start a new topic before asking")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "Print the answer without markdown rendering")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "Show up to 8 sources instead of 5")
}
