package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/mesh-intelligence/gameshelf/internal/atomicfile"
)

// Report formats.
const (
	FormatCSV      = "csv"
	FormatPDF      = "pdf"
	FormatMarkdown = "markdown"
	FormatTerminal = "terminal"
)

// DefaultPrefix starts every report file name.
const DefaultPrefix = "games_report"

// Renderer lays out grouped rows. Implementations write rows in the order
// they are given and never sort or drop any.
type Renderer interface {
	// Extension is the file extension, without the dot.
	Extension() string
	// RenderGroup writes one category as a standalone document.
	RenderGroup(w io.Writer, g Group) error
	// RenderAll writes every category into one document.
	RenderAll(w io.Writer, groups []Group) error
}

var renderers = map[string]func() Renderer{
	FormatCSV:      func() Renderer { return CSVRenderer{} },
	FormatPDF:      func() Renderer { return NewPDFRenderer() },
	FormatMarkdown: func() Renderer { return MarkdownRenderer{} },
	FormatTerminal: func() Renderer { return NewTerminalRenderer() },
}

// Formats lists the supported format names.
func Formats() []string {
	out := make([]string, 0, len(renderers))
	for f := range renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// NewRenderer returns the renderer for format.
func NewRenderer(format string) (Renderer, error) {
	mk, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("unknown report format %q (valid: %v)", format, Formats())
	}
	return mk(), nil
}

// Writer places rendered reports in Dir, one file per group or one
// combined file.
type Writer struct {
	Dir      string
	Prefix   string
	Combined bool
}

// FileName returns the file name used for the group with the given id.
func (w Writer) FileName(id, ext string) string {
	return fmt.Sprintf("%s_%s.%s", w.prefix(), id, ext)
}

// CombinedFileName returns the file name of the combined report.
func (w Writer) CombinedFileName(ext string) string {
	return fmt.Sprintf("%s_by_category.%s", w.prefix(), ext)
}

// Write renders groups with r and returns the paths written, in group
// order. Each file is replaced atomically.
func (w Writer) Write(groups []Group, r Renderer) ([]string, error) {
	if w.Combined {
		path := filepath.Join(w.Dir, w.CombinedFileName(r.Extension()))
		err := atomicfile.Write(path, func(out io.Writer) error {
			return r.RenderAll(out, groups)
		})
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		return []string{path}, nil
	}

	paths := make([]string, 0, len(groups))
	for _, g := range groups {
		path := filepath.Join(w.Dir, w.FileName(g.ID, r.Extension()))
		err := atomicfile.Write(path, func(out io.Writer) error {
			return r.RenderGroup(out, g)
		})
		if err != nil {
			return paths, fmt.Errorf("writing %s for category %q: %w", path, g.Label, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w Writer) prefix() string {
	if w.Prefix == "" {
		return DefaultPrefix
	}
	return w.Prefix
}
