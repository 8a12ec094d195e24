package cmd

import (
	"github.com/iksnae/gamehelp/internal"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:     "reset",
	Aliases: []string{"new"},
	Short:   "Start a new topic",
	Long: `Forget the current thread and clear the message log.

The session identity and the selected game are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		a.controller.ResetThread()
		internal.PrintSuccess("Started a new topic")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
