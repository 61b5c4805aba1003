// Package merge joins the collection, the reduced play history and the
// category table into one ordered row set.
package merge

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// Result is the output of Merge.
type Result struct {
	// Rows holds one row per input game, sorted by category, then last
	// played with never-played games first.
	Rows []types.MergedRow

	// Uncategorized lists, in collection order, the games that had no
	// record in the category set. Their rows carry an empty category.
	Uncategorized []string
}

// LastPlayed reduces plays to the latest play date per game id. Several
// plays on the same latest day collapse to that day.
func LastPlayed(plays []types.PlayRecord) map[string]types.LastPlayed {
	last := make(map[string]types.LastPlayed, len(plays))
	for _, p := range plays {
		on := types.PlayedOn(p.PlayedOn)
		if cur, ok := last[p.GameID]; !ok || on.After(cur) {
			last[p.GameID] = on
		}
	}
	return last
}

// Merge left-joins games against the reduced plays and the categories on
// game id and sorts the result. A games slice with a repeated id is
// rejected with types.ErrDuplicateIdentity.
func Merge(games []types.GameRecord, plays []types.PlayRecord, categories []types.CategoryRecord) (Result, error) {
	seen := make(map[string]struct{}, len(games))
	for _, g := range games {
		if _, dup := seen[g.GameID]; dup {
			return Result{}, fmt.Errorf("%w: %s (%s)", types.ErrDuplicateIdentity, g.GameID, g.Name)
		}
		seen[g.GameID] = struct{}{}
	}

	last := LastPlayed(plays)

	category := make(map[string]string, len(categories))
	for _, c := range categories {
		if _, ok := category[c.GameID]; !ok {
			category[c.GameID] = c.Category
		}
	}

	var res Result
	res.Rows = make([]types.MergedRow, 0, len(games))
	for _, g := range games {
		cat, ok := category[g.GameID]
		if !ok {
			res.Uncategorized = append(res.Uncategorized, g.GameID)
		}
		res.Rows = append(res.Rows, types.MergedRow{
			GameID:     g.GameID,
			Name:       g.Name,
			LastPlayed: last[g.GameID],
			Category:   cat,
		})
	}

	Sort(res.Rows)
	return res, nil
}

// Sort orders rows by category, then last played ascending with the
// never-played sentinel first. Name and game id break the remaining ties
// so the order does not depend on input order.
func Sort(rows []types.MergedRow) {
	slices.SortStableFunc(rows, Compare)
}

// Compare is the row ordering used by Sort.
func Compare(a, b types.MergedRow) int {
	if c := cmp.Compare(a.Category, b.Category); c != 0 {
		return c
	}
	if c := a.LastPlayed.Compare(b.LastPlayed); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.GameID, b.GameID)
}
