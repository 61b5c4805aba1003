// Package catstore owns the persistent game-to-category table.
//
// The table is a CSV file with at least the columns game_id, name and
// category. Reconciliation only ever appends rows for game ids the store
// has not seen; an existing row, and in particular its category, is never
// rewritten by it. Columns the user added by hand are carried through
// load and save untouched.
package catstore

import (
	"fmt"

	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// Required column names.
const (
	ColumnGameID   = "game_id"
	ColumnName     = "name"
	ColumnCategory = "category"
)

// DefaultFileName is the category file name inside the data directory.
const DefaultFileName = "game_categories.csv"

var requiredColumns = []string{ColumnGameID, ColumnName, ColumnCategory}

// Store is an in-memory category table. The zero value is not usable; use
// New or Load.
type Store struct {
	columns []string
	records []types.CategoryRecord
	index   map[string]int
	bom     bool
	crlf    bool
}

// New returns an empty store with the default columns.
func New() *Store {
	return &Store{
		columns: append([]string(nil), requiredColumns...),
		index:   make(map[string]int),
	}
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Columns returns the column names in file order.
func (s *Store) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Records returns a copy of the records in store order.
func (s *Store) Records() []types.CategoryRecord {
	out := make([]types.CategoryRecord, len(s.records))
	for i, r := range s.records {
		out[i] = copyRecord(r)
	}
	return out
}

// Lookup returns the record for id.
func (s *Store) Lookup(id string) (types.CategoryRecord, bool) {
	i, ok := s.index[id]
	if !ok {
		return types.CategoryRecord{}, false
	}
	return copyRecord(s.records[i]), true
}

// Reconcile appends a record with an empty category for every game whose
// id the store does not hold yet, in collection order, and returns how many
// were appended. Existing records are left as they are, even when the
// game's name changed upstream. Calling it again with the same games
// appends nothing.
func (s *Store) Reconcile(games []types.GameRecord) int {
	appended := 0
	for _, g := range games {
		if _, ok := s.index[g.GameID]; ok {
			continue
		}
		s.add(types.CategoryRecord{GameID: g.GameID, Name: g.Name})
		appended++
	}
	return appended
}

// SetCategory assigns category to the game with the given id. This is the
// explicit user edit; reconciliation never calls it.
func (s *Store) SetCategory(id, category string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("game %s: %w", id, types.ErrNotFound)
	}
	s.records[i].Category = category
	return nil
}

// Uncategorized returns the records whose category is empty.
func (s *Store) Uncategorized() []types.CategoryRecord {
	var out []types.CategoryRecord
	for _, r := range s.records {
		if r.Category == "" {
			out = append(out, copyRecord(r))
		}
	}
	return out
}

func (s *Store) add(r types.CategoryRecord) {
	s.index[r.GameID] = len(s.records)
	s.records = append(s.records, r)
}

func copyRecord(r types.CategoryRecord) types.CategoryRecord {
	if r.Extra != nil {
		extra := make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			extra[k] = v
		}
		r.Extra = extra
	}
	return r
}
