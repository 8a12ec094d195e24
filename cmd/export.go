package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/gamehelp/internal"
	"github.com/iksnae/gamehelp/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	toStdout  bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current conversation to a file",
	Long: `Export the current thread to one of several formats (jsonl, md, yaml, json).

The file is named after the game and the thread id, e.g.
hollow-knight-<thread-id>.md, and written to the output directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp(false, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		transcript := a.controller.Transcript()
		if len(transcript.Messages) == 0 {
			internal.PrintWarning("The current thread has no messages")
		}

		if toStdout {
			if err := exporter.Export(transcript, cmd.OutOrStdout()); err != nil {
				return &internal.ExportError{Format: format, Path: "-", Err: err}
			}
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(outputDir, transcript.FileStem()+"."+exporter.Extension())

		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d message(s) to %s", len(transcript.Messages), path), func(ctx context.Context) error {
			return writeTranscript(exporter, transcript, path)
		})
		if err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %s", path))
		return nil
	},
}

func writeTranscript(exporter export.Exporter, transcript *internal.Transcript, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := exporter.Export(transcript, file); err != nil {
		_ = file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		internal.LogWarn("Failed to close file %s: %v", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write to standard output instead of a file")
}
