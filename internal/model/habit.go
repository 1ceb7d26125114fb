package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyHabitName is returned when a habit is created or renamed with a
// blank name. Validation happens before any state is touched.
var ErrEmptyHabitName = errors.New("habit name must not be empty")

// Habit is a recurring practice tracked day by day.
//
// CompletionsByDate is sparse: a key is present only for dates the user has
// marked complete. Completed and Streak are caches derived from the map and
// the current date; every mutation path recomputes them before the habit is
// handed back to callers.
type Habit struct {
	// ID is the unique identifier for this habit, stable for its lifetime.
	ID string `json:"id" db:"id"`

	// Name is the display label shown in the habit list.
	Name string `json:"name" db:"name"`

	// CompletionsByDate maps YYYY-MM-DD date keys to completion.
	CompletionsByDate map[string]bool `json:"completionsByDate" db:"-"`

	// Completed reports whether today's date key is marked complete.
	Completed bool `json:"completed" db:"completed"`

	// Streak is the count of consecutive completed days ending today.
	Streak int `json:"streak" db:"streak"`

	// CreatedAt is set once at creation and never changes.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Notify enables the daily reminder for this habit.
	Notify bool `json:"notify" db:"notify"`

	// NotifyTime is the reminder time of day in HH:MM, empty when unset.
	NotifyTime string `json:"notifyTime,omitempty" db:"notify_time"`

	// NotificationID is the opaque handle returned by the reminder
	// scheduler. The core stores it and never interprets it.
	NotificationID string `json:"notificationId,omitempty" db:"notification_id"`
}

// ValidateHabitName trims the name and rejects an empty result. It is
// the single validation point for creates and renames.
func ValidateHabitName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyHabitName
	}
	return name, nil
}

// NewHabit creates a habit with an empty completion map. The name is
// trimmed; an empty result is rejected.
func NewHabit(name string, now time.Time) (Habit, error) {
	name, err := ValidateHabitName(name)
	if err != nil {
		return Habit{}, err
	}
	return Habit{
		ID:                uuid.New().String(),
		Name:              name,
		CompletionsByDate: map[string]bool{},
		CreatedAt:         now,
	}, nil
}
