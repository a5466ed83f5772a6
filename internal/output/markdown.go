package output

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Task descriptions are authored in markdown. Narrow terminals get a
// floor so wrapping never produces unreadable slivers.
const (
	defaultDescriptionWidth = 80
	minDescriptionWidth     = 20
)

// TerminalWidth returns the current terminal width, falling back to
// $COLUMNS and then the given default when stdout is not a terminal.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultDescriptionWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// RenderTaskDescription renders a task's description for the show view.
// When rendering fails the raw text is returned indented instead; the
// description must always be readable even if its markdown is not.
func RenderTaskDescription(desc string) string {
	rendered, err := RenderMarkdown(desc)
	if err != nil {
		return IndentString(strings.TrimSpace(desc), 2)
	}
	return rendered
}

// RenderMarkdown renders markdown with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultDescriptionWidth))
}

// RenderMarkdownWithWidth renders markdown with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minDescriptionWidth {
		width = minDescriptionWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithEmoji(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}
