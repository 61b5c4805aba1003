package catstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/gameshelf/internal/atomicfile"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

const utf8BOM = "\ufeff"

// Load reads the category file at path. A missing file yields an empty
// store so that the first run and every later run go through the same
// Reconcile call. Any other read problem, a missing required column, a
// ragged row, an empty or repeated game_id is reported as
// types.ErrStoreCorrupt; the file is never repaired.
//
// A leading byte order mark and CRLF line endings are remembered so that
// Save writes them back.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("%w: %v", types.ErrStoreCorrupt, err)
	}

	s, err := read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStoreCorrupt, err)
	}
	s.bom = bytes.HasPrefix(data, []byte(utf8BOM))
	if i := bytes.IndexByte(data, '\n'); i > 0 && data[i-1] == '\r' {
		s.crlf = true
	}
	return s, nil
}

// Save writes s to path atomically, keeping the column order it was loaded
// with and the record order.
func Save(path string, s *Store) error {
	if err := atomicfile.Write(path, s.write); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func read(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file has no header")
	}
	if err != nil {
		return nil, err
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	pos := make(map[string]int, len(header))
	for i, col := range header {
		if col == "" {
			return nil, fmt.Errorf("column %d has no name", i+1)
		}
		if _, dup := pos[col]; dup {
			return nil, fmt.Errorf("column %q appears twice", col)
		}
		pos[col] = i
	}
	for _, col := range requiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	s := &Store{columns: header, index: make(map[string]int)}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		rec := types.CategoryRecord{
			GameID:   row[pos[ColumnGameID]],
			Name:     row[pos[ColumnName]],
			Category: row[pos[ColumnCategory]],
		}
		if rec.GameID == "" {
			return nil, fmt.Errorf("line %d: empty game_id", line)
		}
		if _, dup := s.index[rec.GameID]; dup {
			return nil, fmt.Errorf("line %d: game_id %s appears twice", line, rec.GameID)
		}
		for i, col := range header {
			if isRequired(col) {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[col] = row[i]
		}
		s.add(rec)
	}
	return s, nil
}

func (s *Store) write(w io.Writer) error {
	if s.bom {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = s.crlf
	if err := cw.Write(s.columns); err != nil {
		return err
	}
	row := make([]string, len(s.columns))
	for _, rec := range s.records {
		for i, col := range s.columns {
			switch col {
			case ColumnGameID:
				row[i] = rec.GameID
			case ColumnName:
				row[i] = rec.Name
			case ColumnCategory:
				row[i] = rec.Category
			default:
				row[i] = rec.Extra[col]
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isRequired(col string) bool {
	for _, c := range requiredColumns {
		if c == col {
			return true
		}
	}
	return false
}
