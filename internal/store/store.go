package store

import (
	"context"

	"github.com/nhle/daybook/internal/model"
)

// EntryFilter controls filtering and pagination for entry list queries.
type EntryFilter struct {
	Query  *string // search title + content
	Mood   *string
	Limit  int
	Offset int
}

// Store defines the persistence interface for habits, journal entries,
// and the accountability partner.
//
// Every operation round-trips all model fields, including the sparse
// completion map and creation timestamps. A failed write never corrupts
// previously loaded in-memory state: callers keep the values they hold and
// decide how to surface the error.
type Store interface {
	// === Habits ===

	GetHabits(ctx context.Context) ([]model.Habit, error)
	UpsertHabit(ctx context.Context, h model.Habit) error
	SaveHabits(ctx context.Context, habits []model.Habit) error
	DeleteHabit(ctx context.Context, id string) error

	// === Journal entries ===

	UpsertJournalEntry(ctx context.Context, e model.JournalEntry) error
	GetJournalEntries(ctx context.Context, filter EntryFilter) ([]model.JournalEntry, error)
	DeleteJournalEntry(ctx context.Context, id string) error

	// === Gratitude entries ===

	UpsertGratitudeEntry(ctx context.Context, e model.GratitudeEntry) error
	GetGratitudeEntries(ctx context.Context, filter EntryFilter) ([]model.GratitudeEntry, error)
	DeleteGratitudeEntry(ctx context.Context, id string) error

	// === Highlight entries ===

	UpsertHighlightEntry(ctx context.Context, e model.HighlightEntry) error
	GetHighlightEntries(ctx context.Context, filter EntryFilter) ([]model.HighlightEntry, error)
	DeleteHighlightEntry(ctx context.Context, id string) error

	// === Accountability partner ===

	SavePartner(ctx context.Context, p model.AccountabilityPartner) error
	GetPartner(ctx context.Context) (*model.AccountabilityPartner, error)
	ClearPartner(ctx context.Context) error

	// === Maintenance ===

	// ClearAll removes every habit, entry, and the partner row. Used by
	// the settings "clear all data" action.
	ClearAll(ctx context.Context) error
}
