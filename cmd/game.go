package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/gamehelp/internal"
	"github.com/spf13/cobra"
)

// gameCmd represents the game command
var gameCmd = &cobra.Command{
	Use:   "game [id]",
	Short: "Show or switch the selected game",
	Long: `Without arguments, print the selected game.

With a game id, switch to that game. Switching to a different game starts a
new topic: the thread and the message log are cleared. Use 'gamehelp game list'
to see the available ids.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			g := a.controller.Game()
			fmt.Fprintf(out, "%s %s\n", accentStyle(g).Bold(true).Render(g.Label), idStyle.Render("("+g.ID+")"))
			return nil
		}

		before := a.controller.Game()
		g, err := a.controller.SelectGame(args[0])
		if err != nil {
			return fmt.Errorf("%w (use 'gamehelp game list' to see available games)", err)
		}
		if g.ID == before.ID {
			internal.PrintInfo(fmt.Sprintf("Already on %s", g.Label))
			return nil
		}
		internal.PrintSuccess(fmt.Sprintf("Switched to %s. Started a new topic.", g.Label))
		return nil
	},
}

var gameListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available games",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		displayGames(cmd.OutOrStdout(), a.catalog.Games(), a.controller.Game().ID)
		return nil
	},
}

var idStyle = metaStyle.Italic(true)

func displayGames(out io.Writer, games []internal.Game, current string) {
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🎮 %d game(s)", len(games))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, " \tID\tName\t")
	_, _ = fmt.Fprintln(w, " \t"+strings.Repeat("─", 16)+"\t"+strings.Repeat("─", 28)+"\t")

	for _, g := range games {
		marker := " "
		if g.ID == current {
			marker = "●"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", accentStyle(g).Render(marker), g.ID, accentStyle(g).Render(g.Label))
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: switch with `gamehelp game <id>`"))
}

func init() {
	rootCmd.AddCommand(gameCmd)
	gameCmd.AddCommand(gameListCmd)
}
