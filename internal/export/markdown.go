package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/gamehelp/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	label := transcript.Game.Label
	if label == "" {
		label = transcript.Game.ID
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", label)

	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", transcript.SessionID)
	if transcript.ThreadID != "" {
		_, _ = fmt.Fprintf(w, "**Thread:** %s  \n", transcript.ThreadID)
	}
	_, _ = fmt.Fprintf(w, "**Spoilers:** %s  \n", transcript.Spoiler.Label())
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range transcript.Messages {
		timestamp := ""
		if !msg.CreatedAt.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.CreatedAt.UTC().Format(time.RFC3339))
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, escapeMarkdown(msg.Content))

		if sources := internal.CapSources(msg.Sources, internal.MaxDetailSources); len(sources) > 0 {
			_, _ = fmt.Fprintf(w, "Sources:\n\n")
			for _, src := range sources {
				writeSource(w, src)
			}
			_, _ = fmt.Fprintln(w)
		}

		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func writeSource(w io.Writer, src internal.SourceRecord) {
	label := src.DisplayLabel()
	if src.URL != "" {
		_, _ = fmt.Fprintf(w, "- [%s](%s)", label, src.URL)
	} else {
		_, _ = fmt.Fprintf(w, "- %s", label)
	}
	if src.Author != "" {
		_, _ = fmt.Fprintf(w, " by %s", src.Author)
	}
	if src.LicenseName != "" {
		_, _ = fmt.Fprintf(w, " (%s)", src.LicenseName)
	}
	_, _ = fmt.Fprintln(w)
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
