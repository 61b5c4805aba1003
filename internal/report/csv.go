package report

import (
	"io"

	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// CSVRenderer is the tabular export: the merged columns, one row per game.
type CSVRenderer struct{}

func (CSVRenderer) Extension() string { return "csv" }

func (CSVRenderer) RenderGroup(w io.Writer, g Group) error {
	return writeRowsCSV(w, g.Rows)
}

func (CSVRenderer) RenderAll(w io.Writer, groups []Group) error {
	var rows []types.MergedRow
	for _, g := range groups {
		rows = append(rows, g.Rows...)
	}
	return writeRowsCSV(w, rows)
}
