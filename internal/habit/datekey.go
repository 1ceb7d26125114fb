// Package habit implements the habit tracking core: the sparse
// date-keyed completion map, streak derivation, month grid layout,
// and the mutation engine that keeps derived fields consistent.
package habit

import (
	"fmt"
	"time"
)

// KeyLayout is the date-key format used everywhere completion state is
// indexed: a local calendar date rendered as YYYY-MM-DD.
const KeyLayout = "2006-01-02"

// Key formats t as a date key in t's location.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// ParseKey parses a YYYY-MM-DD date key into a local midnight time.
func ParseKey(s string) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date key %q: %w", s, err)
	}
	return t, nil
}

// ValidKey reports whether s is a syntactically valid date key.
func ValidKey(s string) bool {
	_, err := ParseKey(s)
	return err == nil
}
