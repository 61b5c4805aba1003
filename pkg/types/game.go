package types

import "time"

// GameRecord is one owned game as reported by the catalog collection.
// GameID is an opaque identity; it is never compared as a number.
type GameRecord struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
}

// PlayRecord is a single logged play of a game. Plays are kept unreduced;
// a game may have any number of them.
type PlayRecord struct {
	GameID   string    `json:"game_id"`
	PlayedOn time.Time `json:"played_on"`
}

// CategoryRecord is the persisted, user-assigned category of one game.
// Extra holds values of columns the user added to the category file.
type CategoryRecord struct {
	GameID   string            `json:"game_id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// MergedRow is one output row of the merge: a game, when it was last
// played, and its category.
type MergedRow struct {
	GameID     string     `json:"game_id,omitempty"`
	Name       string     `json:"name"`
	LastPlayed LastPlayed `json:"last_played"`
	Category   string     `json:"category"`
}
