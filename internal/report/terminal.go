package report

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TerminalRenderer prints aligned tables for reading in a terminal.
type TerminalRenderer struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	muted  lipgloss.Style
}

// NewTerminalRenderer returns a TerminalRenderer with the default styles.
func NewTerminalRenderer() TerminalRenderer {
	return TerminalRenderer{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		cell:   lipgloss.NewStyle().Padding(0, 1),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (TerminalRenderer) Extension() string { return "txt" }

func (t TerminalRenderer) RenderGroup(w io.Writer, g Group) error {
	bw := bufio.NewWriter(w)
	t.writeTable(bw, g)
	return bw.Flush()
}

func (t TerminalRenderer) RenderAll(w io.Writer, groups []Group) error {
	bw := bufio.NewWriter(w)
	for _, g := range groups {
		t.writeTable(bw, g)
	}
	return bw.Flush()
}

func (t TerminalRenderer) writeTable(w *bufio.Writer, g Group) {
	headers := []string{"Game Name", "Last Played"}
	widths := []int{lipgloss.Width(headers[0]), lipgloss.Width(headers[1])}
	for _, r := range g.Rows {
		widths[0] = max(widths[0], lipgloss.Width(r.Name))
		widths[1] = max(widths[1], lipgloss.Width(r.LastPlayed.String()))
	}
	// Padding is counted inside the style width.
	for i := range widths {
		widths[i] += 2
	}

	w.WriteString(t.title.Render(g.Title()))
	w.WriteString("\n")

	w.WriteString(t.header.Width(widths[0]).Render(headers[0]))
	w.WriteString(t.muted.Render("|"))
	w.WriteString(t.header.Width(widths[1]).Render(headers[1]))
	w.WriteString("\n")
	w.WriteString(t.muted.Render(strings.Repeat("-", widths[0]+widths[1]+1)))
	w.WriteString("\n")

	for _, r := range g.Rows {
		w.WriteString(t.cell.Width(widths[0]).Render(r.Name))
		w.WriteString(t.muted.Render("|"))
		w.WriteString(t.cell.Width(widths[1]).Render(r.LastPlayed.String()))
		w.WriteString("\n")
	}
	w.WriteString("\n")
}
