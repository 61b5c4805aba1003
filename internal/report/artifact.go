package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/gameshelf/internal/atomicfile"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// MergedFileName is the merged artifact's name inside the data directory.
const MergedFileName = "games_last_played.csv"

// Merged artifact columns.
const (
	ColumnName       = "name"
	ColumnLastPlayed = "last_played"
	ColumnCategory   = "category"
)

var mergedColumns = []string{ColumnName, ColumnLastPlayed, ColumnCategory}

// headerAliases maps column titles written by older exports to the current
// column names.
var headerAliases = map[string]string{
	"Game Name":        ColumnName,
	"Last Played Date": ColumnLastPlayed,
	"Category":         ColumnCategory,
}

// WriteMerged writes rows to path as the merged artifact, in the given
// order.
func WriteMerged(path string, rows []types.MergedRow) error {
	return atomicfile.Write(path, func(w io.Writer) error {
		return writeRowsCSV(w, rows)
	})
}

// ReadMerged reads a merged artifact written by WriteMerged. Rows come back
// in file order; the game id is not part of the artifact and stays empty.
func ReadMerged(path string) ([]types.MergedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := readRowsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

func writeRowsCSV(w io.Writer, rows []types.MergedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(mergedColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Name, r.LastPlayed.String(), r.Category}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRowsCSV(r io.Reader) ([]types.MergedRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("no header")
	}
	if err != nil {
		return nil, err
	}

	pos := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimPrefix(col, "\ufeff")
		if alias, ok := headerAliases[col]; ok {
			col = alias
		}
		pos[col] = i
	}
	for _, col := range mergedColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var rows []types.MergedRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		last, err := types.ParseLastPlayed(rec[pos[ColumnLastPlayed]])
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, types.MergedRow{
			Name:       rec[pos[ColumnName]],
			LastPlayed: last,
			Category:   rec[pos[ColumnCategory]],
		})
	}
}
