package types

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the text form of a play date.
const DateLayout = "2006-01-02"

// NeverPlayed is the text form of the never-played sentinel.
const NeverPlayed = "never"

// legacyNeverPlayed is what older exports wrote for games without plays.
const legacyNeverPlayed = "0"

// LastPlayed is the reduced play history of one game: either a calendar
// date or the never-played sentinel. The zero value is the sentinel, and
// the sentinel orders before every date.
type LastPlayed struct {
	date   time.Time
	played bool
}

// Never returns the never-played sentinel.
func Never() LastPlayed {
	return LastPlayed{}
}

// PlayedOn returns a LastPlayed for the calendar day of t. The time of day
// and location are dropped so that two plays on the same day are equal.
func PlayedOn(t time.Time) LastPlayed {
	y, m, d := t.Date()
	return LastPlayed{date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), played: true}
}

// ParseLastPlayed parses the text form written by String. The legacy "0"
// marker is read as never played.
func ParseLastPlayed(s string) (LastPlayed, error) {
	s = strings.TrimSpace(s)
	switch s {
	case NeverPlayed, legacyNeverPlayed:
		return Never(), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return LastPlayed{}, fmt.Errorf("last played %q: %w", s, err)
	}
	return PlayedOn(t), nil
}

// IsNever reports whether l is the never-played sentinel.
func (l LastPlayed) IsNever() bool {
	return !l.played
}

// Date returns the play date and true, or the zero time and false for the
// sentinel.
func (l LastPlayed) Date() (time.Time, bool) {
	return l.date, l.played
}

// Compare returns -1, 0 or +1. The sentinel is less than any date.
func (l LastPlayed) Compare(o LastPlayed) int {
	switch {
	case !l.played && !o.played:
		return 0
	case !l.played:
		return -1
	case !o.played:
		return 1
	default:
		return l.date.Compare(o.date)
	}
}

// After reports whether l is strictly later than o.
func (l LastPlayed) After(o LastPlayed) bool {
	return l.Compare(o) > 0
}

func (l LastPlayed) String() string {
	if !l.played {
		return NeverPlayed
	}
	return l.date.Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (l LastPlayed) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LastPlayed) UnmarshalText(b []byte) error {
	v, err := ParseLastPlayed(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
