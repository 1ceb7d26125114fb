package habit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nhle/daybook/internal/model"
)

// ErrHabitNotFound is returned when a mutation targets an unknown habit id.
var ErrHabitNotFound = errors.New("habit not found")

// PartnerSource loads the freshest accountability partner configuration.
// The engine consults it at dispatch time rather than caching a copy, so a
// partner disabled moments before a completion never receives a message.
type PartnerSource interface {
	GetPartner(ctx context.Context) (*model.AccountabilityPartner, error)
}

// Messenger delivers the accountability completion message. Implementations
// must return errors rather than panic; the engine treats every failure as
// non-fatal.
type Messenger interface {
	SendAccountability(ctx context.Context, partner model.AccountabilityPartner, habitName string, percent int) error
}

// ToggleOutcome describes what a single toggle did, so the caller can
// decide on remote confirmation and partner messaging without re-deriving
// the transition.
type ToggleOutcome struct {
	// Habit is the updated habit with derived fields recomputed.
	Habit model.Habit

	// DateKey is the date that was toggled.
	DateKey string

	// CompletedToday is true only for a false-to-true transition on
	// today's date key. Undo and non-today edits leave it false.
	CompletedToday bool
}

// Engine applies habit mutations. Every path that changes a completion map
// recomputes the derived Completed/Streak fields before the habit is
// returned; input slices are never mutated in place.
type Engine struct {
	// Now supplies the current time; defaults to time.Now. Tests pin it.
	Now func() time.Time
}

// NewEngine creates an engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Recompute refreshes the derived Completed and Streak fields from the
// completion map and the given time. It is the single recomputation point
// used by every mutation path.
func Recompute(h *model.Habit, now time.Time) {
	h.Completed = h.CompletionsByDate[Key(now)]
	h.Streak = CurrentStreak(h.CompletionsByDate, now)
}

// ToggleDate flips the completion state of one habit at dateKey and returns
// the new habit slice alongside the outcome. The toggle always succeeds for
// a known habit and a syntactically valid key; there are no constraints on
// which dates may be toggled.
func (e *Engine) ToggleDate(habits []model.Habit, habitID, dateKey string) ([]model.Habit, ToggleOutcome, error) {
	if !ValidKey(dateKey) {
		return habits, ToggleOutcome{}, fmt.Errorf("invalid date key %q", dateKey)
	}

	now := e.now()
	todayKey := Key(now)

	idx := -1
	for i := range habits {
		if habits[i].ID == habitID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return habits, ToggleOutcome{}, fmt.Errorf("toggling %s: %w", habitID, ErrHabitNotFound)
	}

	wasCompleted := habits[idx].CompletionsByDate[dateKey]

	updated := make([]model.Habit, len(habits))
	copy(updated, habits)

	h := updated[idx]
	h.CompletionsByDate = Toggle(h.CompletionsByDate, dateKey)
	Recompute(&h, now)
	updated[idx] = h

	outcome := ToggleOutcome{
		Habit:          h,
		DateKey:        dateKey,
		CompletedToday: dateKey == todayKey && !wasCompleted && h.CompletionsByDate[dateKey],
	}
	return updated, outcome, nil
}

// ToggleToday toggles the habit's completion for the current date.
func (e *Engine) ToggleToday(habits []model.Habit, habitID string) ([]model.Habit, ToggleOutcome, error) {
	return e.ToggleDate(habits, habitID, Key(e.now()))
}

// Create appends a new habit with an empty completion map. The name is
// validated before any state changes.
func (e *Engine) Create(habits []model.Habit, name string) ([]model.Habit, model.Habit, error) {
	h, err := model.NewHabit(name, e.now())
	if err != nil {
		return habits, model.Habit{}, err
	}
	updated := make([]model.Habit, 0, len(habits)+1)
	updated = append(updated, habits...)
	updated = append(updated, h)
	return updated, h, nil
}

// Rename changes a habit's display name. Empty names are rejected with no
// partial effect.
func (e *Engine) Rename(habits []model.Habit, habitID, name string) ([]model.Habit, error) {
	trimmed, err := model.ValidateHabitName(name)
	if err != nil {
		return habits, err
	}
	updated := make([]model.Habit, len(habits))
	copy(updated, habits)
	for i := range updated {
		if updated[i].ID == habitID {
			updated[i].Name = trimmed
			return updated, nil
		}
	}
	return habits, fmt.Errorf("renaming %s: %w", habitID, ErrHabitNotFound)
}

// Delete removes a habit by id. Deleting an unknown id is a no-op.
func (e *Engine) Delete(habits []model.Habit, habitID string) []model.Habit {
	updated := make([]model.Habit, 0, len(habits))
	for _, h := range habits {
		if h.ID != habitID {
			updated = append(updated, h)
		}
	}
	return updated
}

// ApplyServerStreak overwrites the habit's streak with the server-provided
// value and forces Completed true. The server is the authority for the
// numeric streak on the confirmation path; any drift between client and
// server computation resolves in the server's favor.
func (e *Engine) ApplyServerStreak(habits []model.Habit, habitID string, streak int) []model.Habit {
	updated := make([]model.Habit, len(habits))
	copy(updated, habits)
	for i := range updated {
		if updated[i].ID == habitID {
			updated[i].Streak = streak
			updated[i].Completed = true
		}
	}
	return updated
}

// CompletionPercent returns the share of habits completed today as a
// rounded percentage clamped to 0..100.
func CompletionPercent(habits []model.Habit) int {
	total := len(habits)
	if total == 0 {
		total = 1
	}
	done := 0
	for _, h := range habits {
		if h.Completed {
			done++
		}
	}
	percent := int(math.Round(float64(done) / float64(total) * 100))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// NotifyPartner evaluates the accountability side effect for a completion.
// It re-fetches the partner configuration so the Enabled gate is checked
// against the freshest value, then sends the templated message with the
// habit name and today's completion percentage. Callers invoke it only for
// a today false-to-true transition; failures are returned for logging and
// never affect habit state.
func (e *Engine) NotifyPartner(ctx context.Context, partners PartnerSource, msgr Messenger, habitName string, habits []model.Habit) error {
	if partners == nil || msgr == nil {
		return nil
	}
	partner, err := partners.GetPartner(ctx)
	if err != nil {
		return fmt.Errorf("loading accountability partner: %w", err)
	}
	if partner == nil || !partner.Enabled {
		return nil
	}
	percent := CompletionPercent(habits)
	if err := msgr.SendAccountability(ctx, *partner, habitName, percent); err != nil {
		return fmt.Errorf("sending accountability message: %w", err)
	}
	return nil
}
