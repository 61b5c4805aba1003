// Package report partitions merged rows by category and renders each
// partition, or all of them, through a Renderer.
package report

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// uncategorizedID names the group of games without a category.
const uncategorizedID = "uncategorized"

// Group is the rows of one category in merge order.
type Group struct {
	// Label is the category as stored; empty for uncategorized games.
	Label string
	// ID is a filesystem-safe identifier derived from Label, stable across
	// runs.
	ID   string
	Rows []types.MergedRow
}

// Title returns the label for display.
func (g Group) Title() string {
	if g.Label == "" {
		return "Uncategorized"
	}
	return g.Label
}

// GroupByCategory partitions rows by category. Groups appear in the order
// their category first appears in rows and each group keeps the relative
// order of its rows, so a sorted merge result yields sorted groups.
func GroupByCategory(rows []types.MergedRow) []Group {
	var groups []Group
	at := make(map[string]int)
	for _, r := range rows {
		i, ok := at[r.Category]
		if !ok {
			i = len(groups)
			at[r.Category] = i
			groups = append(groups, Group{Label: r.Category})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	assignIDs(groups)
	return groups
}

// Slug maps a category label to a file-name-safe identifier: letters and
// digits are kept, every other character becomes an underscore. The empty
// label maps to "uncategorized".
func Slug(label string) string {
	if label == "" {
		return uncategorizedID
	}
	var b strings.Builder
	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// assignIDs sets each group's ID to its slug. Labels that slug to the same
// identifier, such as "Heavy Euro" and "Heavy/Euro", get a suffix hashed
// from the label so that no report file overwrites another.
func assignIDs(groups []Group) {
	bySlug := make(map[string][]int)
	for i := range groups {
		s := Slug(groups[i].Label)
		groups[i].ID = s
		bySlug[s] = append(bySlug[s], i)
	}
	for s, idx := range bySlug {
		if len(idx) < 2 {
			continue
		}
		for _, i := range idx {
			groups[i].ID = fmt.Sprintf("%s_%08x", s, labelHash(groups[i].Label))
		}
	}
}

func labelHash(label string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(label))
	return h.Sum32()
}
