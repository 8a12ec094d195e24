package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/gamehelp/internal"
)

const defaultWrapWidth = 80

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	sourceLinkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// accentStyle colours text with the game's accent
func accentStyle(g internal.Game) lipgloss.Style {
	if g.Accent == "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(g.Accent))
}

// newMarkdownRenderer returns nil when glamour cannot be initialised; callers
// fall back to wrapped plain text.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width <= 0 {
		width = defaultWrapWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		internal.LogDebug("Markdown renderer unavailable: %v", err)
		return nil
	}
	return r
}

func renderContent(r *glamour.TermRenderer, content string, width int) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)")
	}
	if r != nil {
		if out, err := r.Render(content); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return messageContentStyle.Render(wrapText(content, width))
}

// renderSources lists at most limit sources and notes how many were hidden
func renderSources(sources []internal.SourceRecord, limit int) string {
	shown := internal.CapSources(sources, limit)
	if len(shown) == 0 {
		return ""
	}

	lines := []string{metaStyle.Render("  Sources:")}
	for i, src := range shown {
		label := src.DisplayLabel()
		line := fmt.Sprintf("  %d. %s", i+1, label)
		if src.URL != "" && src.URL != label {
			line += " " + sourceLinkStyle.Render(src.URL)
		}
		var credits []string
		if src.Author != "" {
			credits = append(credits, "by "+src.Author)
		}
		if src.LicenseName != "" {
			credits = append(credits, src.LicenseName)
		}
		if len(credits) > 0 {
			line += " " + metaStyle.Render("("+strings.Join(credits, ", ")+")")
		}
		lines = append(lines, line)
	}
	if hidden := len(sources) - len(shown); hidden > 0 {
		lines = append(lines, metaStyle.Render(fmt.Sprintf("  … %d more", hidden)))
	}
	return strings.Join(lines, "\n")
}

// renderMessage renders one log entry with its position, timestamp and sources
func renderMessage(index, total int, msg internal.ChatMessage, r *glamour.TermRenderer, width, sourceLimit int) string {
	var label string
	switch msg.Role {
	case internal.RoleUser:
		label = userMessageStyle.Render("👤 You")
	case internal.RoleAssistant:
		label = assistantMessageStyle.Render("🎮 Guide")
	default:
		label = metaStyle.Render(string(msg.Role))
	}

	header := label + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if !msg.CreatedAt.IsZero() {
		header += " " + timestampStyle.Render(msg.CreatedAt.Local().Format("15:04:05"))
	}

	parts := []string{header, renderContent(r, msg.Content, width)}
	if sources := renderSources(msg.Sources, sourceLimit); sources != "" {
		parts = append(parts, sources)
	}
	return strings.Join(parts, "\n")
}

// describeError turns an ask failure into user-facing text: name, message,
// status and the error body as received. developer adds the failure kind.
func describeError(err error, developer bool) string {
	gwErr, ok := internal.AsGatewayError(err)
	if !ok {
		return err.Error()
	}

	text := fmt.Sprintf("%s: %s", gwErr.Name, gwErr.Message)
	switch {
	case gwErr.Status != 0 && gwErr.StatusText != "":
		text = fmt.Sprintf("%s (HTTP %d %s)", text, gwErr.Status, gwErr.StatusText)
	case gwErr.Status != 0:
		text = fmt.Sprintf("%s (HTTP %d)", text, gwErr.Status)
	}
	if developer {
		text = fmt.Sprintf("%s [%s]", text, gwErr.Kind)
	}
	if gwErr.Body == nil {
		return text
	}

	var detail string
	switch body := gwErr.Body.(type) {
	case error:
		detail = body.Error()
	case string:
		detail = body
	default:
		b, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			detail = fmt.Sprintf("%v", body)
		} else {
			detail = string(b)
		}
	}
	return fmt.Sprintf("%s\n%s", text, detail)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}
