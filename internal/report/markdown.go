package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer writes a heading and a two-column table per category.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Extension() string { return "md" }

func (MarkdownRenderer) RenderGroup(w io.Writer, g Group) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Games Report for Category: %s\n\n", escapeMarkdown(g.Title()))
	writeMarkdownTable(bw, g)
	return bw.Flush()
}

func (MarkdownRenderer) RenderAll(w io.Writer, groups []Group) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# Games Report by Category\n")
	for _, g := range groups {
		fmt.Fprintf(bw, "\n## %s\n\n", escapeMarkdown(g.Title()))
		writeMarkdownTable(bw, g)
	}
	return bw.Flush()
}

func writeMarkdownTable(w *bufio.Writer, g Group) {
	w.WriteString("| Game Name | Last Played |\n")
	w.WriteString("|---|---|\n")
	for _, r := range g.Rows {
		fmt.Fprintf(w, "| %s | %s |\n", escapeMarkdown(r.Name), r.LastPlayed)
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	"\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Preview renders markdown for the terminal, wrapped at width columns.
func Preview(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	return r.Render(markdown)
}
