package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/gamehelp/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat  string
	inspectPreview int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the persisted client state",
	Long: `Dump the raw entries of the state database.

This command shows every key the client persists (session id, thread id,
message log, selected game) with its size and a preview of the value. It is
meant for debugging.

Examples:
  gamehelp inspect                                 # Table with previews
  gamehelp inspect --format json                   # Full values as JSON
  gamehelp inspect --storage /path/to/state.db     # Inspect another database`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := internal.OpenSQLiteStore(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = store.Close() }()

		entries, err := store.Entries("")
		if err != nil {
			return fmt.Errorf("failed to read entries: %w", err)
		}

		out := cmd.OutOrStdout()
		switch inspectFormat {
		case "json":
			return inspectJSON(out, entries)
		case "table", "":
			fmt.Fprintf(out, "📋 Database: %s\n", store.Path())
			inspectTable(out, entries, inspectPreview)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: table, json)", inspectFormat)
		}
	},
}

func inspectTable(out io.Writer, entries []internal.KeyValuePair, preview int) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "⚠️  No entries found")
		return
	}
	fmt.Fprintf(out, "📊 Found %d entr(y/ies)\n\n", len(entries))

	for _, e := range entries {
		fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(out, "🔑 %s (%d bytes)\n", e.Key, len(e.Value))
		fmt.Fprintf(out, "   %s\n", previewValue(e.Value, preview))
	}
}

// inspectJSON prints entries as a JSON object. Values that are themselves JSON
// are embedded as-is.
func inspectJSON(out io.Writer, entries []internal.KeyValuePair) error {
	obj := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		var decoded interface{}
		if err := json.Unmarshal([]byte(e.Value), &decoded); err == nil {
			obj[e.Key] = decoded
		} else {
			obj[e.Key] = e.Value
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(obj)
}

func previewValue(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit > 3 && len(value) > limit {
		return value[:limit-3] + "..."
	}
	return value
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "table", "Output format (table, json)")
	inspectCmd.Flags().IntVar(&inspectPreview, "preview", 120, "Maximum preview length per value")
}
