package analysis

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders the distribution as a Markdown report with a table of
// categories.
func (d Distribution) Markdown(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "분석된 총 문제 수 (중복 제외): %d개\n\n", d.Total)
	b.WriteString("| 대분류 | 문제 수 | 비중 (%) |\n")
	b.WriteString("|:--|--:|--:|\n")
	for _, s := range d.Shares {
		fmt.Fprintf(&b, "| %s | %d | %.2f |\n", escapeCell(s.Category), s.Count, s.Percent)
	}
	return b.String()
}

// HTML renders the Markdown report as an HTML fragment.
func (d Distribution) HTML(title string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(d.Markdown(title)), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
