// Package console renders human-readable CLI output.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// boxStyle for end-of-run summaries
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// Level colors a summary value.
type Level int

const (
	Plain Level = iota
	Good
	Bad
	Warn
)

func (l Level) render(s string) string {
	switch l {
	case Good:
		return successStyle.Render(s)
	case Bad:
		return errorStyle.Render(s)
	case Warn:
		return warnStyle.Render(s)
	default:
		return s
	}
}

// Row is one labelled value in a summary box.
type Row struct {
	Label string
	Value string
	Level Level
}

// Count builds a Row for an integer, colored with level only when n > 0.
func Count(label string, n int, level Level) Row {
	if n == 0 {
		level = Plain
	}
	return Row{Label: label, Value: fmt.Sprintf("%d", n), Level: level}
}

// FormatHeader renders a command banner.
func FormatHeader(w io.Writer, title string) {
	fmt.Fprintln(w, headerBoxStyle.Render(titleStyle.Render(title)))
}

// FormatSummary renders a titled box of label/value rows with the labels
// aligned.
func FormatSummary(w io.Writer, title string, rows []Row) {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Label))
	}

	lines := []string{titleStyle.Render(title)}
	for _, r := range rows {
		pad := strings.Repeat(" ", width-lipgloss.Width(r.Label))
		lines = append(lines, fmt.Sprintf("%s%s  %s", dimStyle.Render(r.Label+":"), pad, r.Level.render(r.Value)))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// FormatResult renders a single ✓/✗ line.
func FormatResult(w io.Writer, ok bool, msg string) {
	if ok {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render("✓"), msg)
		return
	}
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("✗"), msg)
}

// FormatNote renders a dimmed informational line.
func FormatNote(w io.Writer, msg string) {
	fmt.Fprintln(w, dimStyle.Render(msg))
}
