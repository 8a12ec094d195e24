package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/gamehelp/internal"
	"github.com/spf13/cobra"
)

var (
	chatSpoiler string
	chatGame    string
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open a full-screen chat with the game guide.

Commands inside the chat:
  /new               start a new topic
  /game <id>         switch game (starts a new topic)
  /spoiler <level>   none, light, some, full or 0-100
  /sources           toggle between 5 and 8 sources per answer
  /quit              leave

Logs are written to ~/.gamehelp/gamehelp.log while the chat is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true, func(o *internal.ControllerOptions) error {
			if chatSpoiler == "" {
				return nil
			}
			level, err := internal.ParseSpoiler(chatSpoiler)
			if err != nil {
				return err
			}
			o.Spoiler = level
			return nil
		})
		if err != nil {
			return err
		}
		defer a.Close()

		if chatGame != "" {
			if _, err := a.controller.SelectGame(chatGame); err != nil {
				return err
			}
		}

		if err := internal.RedirectLogsToFile(a.cfg.LogFile); err != nil {
			internal.LogWarn("Failed to open log file %s: %v", a.cfg.LogFile, err)
		}

		developer := a.cfg.DeveloperMode != nil && *a.cfg.DeveloperMode
		model := newChatModel(cmd.Context(), a.controller, a.catalog, developer)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("chat exited: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatSpoiler, "spoiler", "s", "", "Starting spoiler level: none, light, some, full or 0-100")
	chatCmd.Flags().StringVarP(&chatGame, "game", "g", "", "Switch to this game before opening the chat")
}
