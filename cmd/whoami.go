package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the session and thread identifiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		snap := a.controller.Snapshot()
		thread := snap.ThreadID
		if thread == "" {
			thread = "(none)"
		}
		endpoint := a.gateway.Endpoint()
		if endpoint == "" {
			endpoint = "(not configured)"
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Session:\t%s\n", snap.SessionID)
		_, _ = fmt.Fprintf(w, "Thread:\t%s\n", thread)
		_, _ = fmt.Fprintf(w, "Game:\t%s (%s)\n", snap.Game.Label, snap.Game.ID)
		_, _ = fmt.Fprintf(w, "Spoilers:\t%s\n", snap.Spoiler)
		_, _ = fmt.Fprintf(w, "Messages:\t%d\n", len(snap.Messages))
		_, _ = fmt.Fprintf(w, "Endpoint:\t%s\n", endpoint)
		_, _ = fmt.Fprintf(w, "State:\t%s\n", a.store.Path())
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
