package model

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is a free-form dated journal note with optional mood and tags.
type JournalEntry struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title,omitempty" db:"title"`
	Content   string    `json:"content" db:"content"`
	Mood      string    `json:"mood,omitempty" db:"mood"`
	Tags      []string  `json:"tags,omitempty" db:"-"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// GratitudeEntry records a short list of things the user is grateful for.
type GratitudeEntry struct {
	ID        string    `json:"id" db:"id"`
	Items     []string  `json:"items" db:"-"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// HighlightEntry captures the highlight of a day and why it mattered.
type HighlightEntry struct {
	ID        string    `json:"id" db:"id"`
	Highlight string    `json:"highlight" db:"highlight"`
	Reason    string    `json:"reason,omitempty" db:"reason"`
	Mood      string    `json:"mood,omitempty" db:"mood"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// NewEntryID returns a fresh identifier for any entry kind.
func NewEntryID() string {
	return uuid.New().String()
}
