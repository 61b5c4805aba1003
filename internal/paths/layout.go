package paths

import (
	"fmt"
	"path/filepath"
)

// Layout names the files gameshelf keeps under one data directory.
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at dataDir.
func NewLayout(dataDir string) Layout {
	return Layout{Root: dataDir}
}

// Collection is the raw owned-collection document.
func (l Layout) Collection() string { return filepath.Join(l.Root, "collection.xml") }

// PlaysDir holds one raw document per play-history page.
func (l Layout) PlaysDir() string { return filepath.Join(l.Root, "plays") }

// PlayPage is the raw document for 1-based page n.
func (l Layout) PlayPage(n int) string {
	return filepath.Join(l.PlaysDir(), fmt.Sprintf("page-%03d.xml", n))
}

// PlayPagePattern globs every stored play page.
func (l Layout) PlayPagePattern() string { return filepath.Join(l.PlaysDir(), "page-*.xml") }

// CategoryStore is the durable per-game category file.
func (l Layout) CategoryStore() string { return filepath.Join(l.Root, "game_categories.csv") }

// Merged is the merged artifact consumed by the report command.
func (l Layout) Merged() string { return filepath.Join(l.Root, "games_last_played.csv") }

// History is the SQLite run log.
func (l Layout) History() string { return filepath.Join(l.Root, "history.db") }

// ReportsDir is the default report output directory.
func (l Layout) ReportsDir() string { return filepath.Join(l.Root, "reports") }
