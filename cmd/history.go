package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/gamehelp/internal"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyPlain   bool
	historySources bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the current conversation",
	Long:  `Display the messages of the current thread, oldest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		snap := a.controller.Snapshot()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderHeader(snap))
		fmt.Fprintln(out)

		messages := snap.Messages
		if len(messages) == 0 {
			fmt.Fprintln(out, metaStyle.Render("No messages yet. Ask something with 'gamehelp ask' or 'gamehelp chat'."))
			return nil
		}

		total := len(messages)
		start := 0
		if historyLimit > 0 && historyLimit < total {
			start = total - historyLimit
			fmt.Fprintln(out, metaStyle.Italic(true).Render(fmt.Sprintf("... (%d earlier message(s))", start)))
			fmt.Fprintln(out)
		}

		var renderer *glamour.TermRenderer
		if !historyPlain && internal.IsTerminal() {
			renderer = newMarkdownRenderer(defaultWrapWidth)
		}
		limit := internal.MaxInlineSources
		if historySources {
			limit = internal.MaxDetailSources
		}

		for i := start; i < total; i++ {
			fmt.Fprintln(out, renderMessage(i+1, total, messages[i], renderer, defaultWrapWidth, limit))
			fmt.Fprintln(out)
		}
		return nil
	},
}

// renderHeader summarises the game, identity and spoiler level
func renderHeader(snap internal.Snapshot) string {
	title := headerStyle.Inherit(accentStyle(snap.Game)).Render("🎮 " + snap.Game.Label)

	metaParts := []string{
		fmt.Sprintf("Spoilers: %s", snap.Spoiler.Label()),
		fmt.Sprintf("Messages: %d", len(snap.Messages)),
	}
	if snap.ThreadID != "" {
		metaParts = append(metaParts, fmt.Sprintf("Thread: %s", shortID(snap.ThreadID)))
	} else {
		metaParts = append(metaParts, "Thread: new")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, metaStyle.Render(strings.Join(metaParts, " • ")))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last N messages")
	historyCmd.Flags().BoolVar(&historyPlain, "plain", false, "Do not render markdown")
	historyCmd.Flags().BoolVar(&historySources, "sources", false, "Show up to 8 sources per answer instead of 5")
}
