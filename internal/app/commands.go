package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/daybook/internal/credential"
	"github.com/nhle/daybook/internal/export"
	"github.com/nhle/daybook/internal/habit"
	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/store"
	"github.com/nhle/daybook/internal/ui/habitlist"
	journalview "github.com/nhle/daybook/internal/ui/journal"
)

// opTimeout bounds every store operation launched from the UI.
const opTimeout = 10 * time.Second

type habitsLoadedMsg struct {
	habits []model.Habit
}

// habitMutatedMsg carries the new habit set after a mutation. outcome
// is set for toggles so the root model can kick off confirmation and
// partner messaging on a completion, or invalidate an in-flight
// confirmation on an undo.
type habitMutatedMsg struct {
	habits  []model.Habit
	outcome *habit.ToggleOutcome
	err     error
}

type partnerNotifiedMsg struct {
	err error
}

type entriesReloadedMsg struct {
	loaded journalview.EntriesLoadedMsg
}

type partnerLoadedMsg struct {
	partner *model.AccountabilityPartner
}

type exportDoneMsg struct {
	dir string
	err error
}

type statusMsg string

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// syncToken resolves the sync server token: the environment variable
// wins, then the OS keyring. An empty token means unauthenticated
// requests, which the server may still accept for self-hosted setups.
func syncToken() string {
	if token := os.Getenv("DAYBOOK_SYNC_TOKEN"); token != "" {
		return token
	}
	token, err := credential.Get(credential.KeySyncToken)
	if err != nil {
		return ""
	}
	return token
}

// loadHabits reads all habits from the store.
func (m Model) loadHabits() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		habits, err := s.GetHabits(ctx)
		if err != nil {
			return habitMutatedMsg{err: fmt.Errorf("loading habits: %w", err)}
		}
		return habitsLoadedMsg{habits: habits}
	}
}

// toggleToday flips today's completion for a habit, persists the new
// set, and reports the outcome.
func (m Model) toggleToday(habitID string) tea.Cmd {
	s := m.store
	eng := m.engine
	habits := m.habits
	return func() tea.Msg {
		updated, outcome, err := eng.ToggleToday(habits, habitID)
		if err != nil {
			return habitMutatedMsg{err: err}
		}

		ctx, cancel := opContext()
		defer cancel()
		if err := s.UpsertHabit(ctx, outcome.Habit); err != nil {
			// Keep the previous in-memory state on a failed write.
			return habitMutatedMsg{err: fmt.Errorf("saving habit: %w", err)}
		}

		return habitMutatedMsg{habits: updated, outcome: &outcome}
	}
}

// afterCompletion runs the side effects of a today false-to-true
// completion: remote confirmation and the accountability message.
func (m Model) afterCompletion(outcome habit.ToggleOutcome) tea.Cmd {
	var cmds []tea.Cmd

	if m.reconciler != nil {
		cmds = append(cmds, m.reconciler.Confirm(outcome.Habit.ID, outcome.DateKey))
	}

	if m.messenger != nil {
		s := m.store
		eng := m.engine
		habits := m.habits
		name := outcome.Habit.Name
		msgr := m.messenger
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := opContext()
			defer cancel()
			return partnerNotifiedMsg{
				err: eng.NotifyPartner(ctx, s, msgr, name, habits),
			}
		})
	}

	return tea.Batch(cmds...)
}

// createHabit validates and persists a new habit.
func (m Model) createHabit(name string) tea.Cmd {
	s := m.store
	eng := m.engine
	habits := m.habits
	return func() tea.Msg {
		updated, created, err := eng.Create(habits, name)
		if err != nil {
			return habitMutatedMsg{err: err}
		}

		ctx, cancel := opContext()
		defer cancel()
		if err := s.UpsertHabit(ctx, created); err != nil {
			return habitMutatedMsg{err: fmt.Errorf("saving habit: %w", err)}
		}
		return habitMutatedMsg{habits: updated}
	}
}

// editHabit renames a habit and reconciles its reminder schedule with
// the notification gateway.
func (m Model) editHabit(req habitlist.EditRequestMsg) tea.Cmd {
	s := m.store
	eng := m.engine
	habits := m.habits
	sched := m.scheduler
	return func() tea.Msg {
		updated, err := eng.Rename(habits, req.HabitID, req.Name)
		if err != nil {
			return habitMutatedMsg{err: err}
		}

		idx := -1
		for i := range updated {
			if updated[i].ID == req.HabitID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return habitMutatedMsg{err: habit.ErrHabitNotFound}
		}

		ctx, cancel := opContext()
		defer cancel()

		h := &updated[idx]
		if sched != nil {
			// Cancel before rescheduling so a time change never leaves
			// two reminders behind.
			if h.NotificationID != "" && (!req.Notify || h.NotifyTime != req.NotifyTime) {
				if err := sched.Cancel(ctx, h.NotificationID); err != nil {
					return habitMutatedMsg{err: fmt.Errorf("cancelling reminder: %w", err)}
				}
				h.NotificationID = ""
			}
			if req.Notify && req.NotifyTime != "" && h.NotificationID == "" {
				id, err := sched.Schedule(ctx, h.ID, req.Name, req.NotifyTime)
				if err != nil {
					return habitMutatedMsg{err: fmt.Errorf("scheduling reminder: %w", err)}
				}
				h.NotificationID = id
			}
		}
		h.Notify = req.Notify
		h.NotifyTime = req.NotifyTime

		if err := s.UpsertHabit(ctx, *h); err != nil {
			return habitMutatedMsg{err: fmt.Errorf("saving habit: %w", err)}
		}
		return habitMutatedMsg{habits: updated}
	}
}

// deleteHabit removes a habit and cancels its reminder.
func (m Model) deleteHabit(habitID string) tea.Cmd {
	s := m.store
	eng := m.engine
	habits := m.habits
	sched := m.scheduler
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if sched != nil {
			for _, h := range habits {
				if h.ID == habitID && h.NotificationID != "" {
					// Best effort; a dangling gateway entry is harmless.
					_ = sched.Cancel(ctx, h.NotificationID)
				}
			}
		}

		if err := s.DeleteHabit(ctx, habitID); err != nil {
			return habitMutatedMsg{err: fmt.Errorf("deleting habit: %w", err)}
		}
		return habitMutatedMsg{habits: eng.Delete(habits, habitID)}
	}
}

// persistHabits writes the current in-memory habit set to the store.
// Used after server reconciliation updates derived fields.
func (m Model) persistHabits() tea.Cmd {
	s := m.store
	habits := m.habits
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		if err := s.SaveHabits(ctx, habits); err != nil {
			return statusMsg(fmt.Sprintf("saving habits: %v", err))
		}
		return nil
	}
}

// loadEntries reloads one entry list with the given filter.
func (m Model) loadEntries(kind journalview.Kind, filter store.EntryFilter) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		loaded := journalview.EntriesLoadedMsg{Kind: kind}
		var err error
		switch kind {
		case journalview.KindGratitude:
			loaded.Gratitude, err = s.GetGratitudeEntries(ctx, filter)
		case journalview.KindHighlight:
			loaded.Highlights, err = s.GetHighlightEntries(ctx, filter)
		default:
			loaded.Journal, err = s.GetJournalEntries(ctx, filter)
		}
		if err != nil {
			return statusMsg(fmt.Sprintf("loading entries: %v", err))
		}
		return entriesReloadedMsg{loaded: loaded}
	}
}

func (m Model) saveJournalEntry(e model.JournalEntry) tea.Cmd {
	s := m.store
	reload := m.loadEntries(journalview.KindJournal, store.EntryFilter{})
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		if err := s.UpsertJournalEntry(ctx, e); err != nil {
			return statusMsg(fmt.Sprintf("saving entry: %v", err))
		}
		return reload()
	}
}

func (m Model) saveGratitudeEntry(e model.GratitudeEntry) tea.Cmd {
	s := m.store
	reload := m.loadEntries(journalview.KindGratitude, store.EntryFilter{})
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		if err := s.UpsertGratitudeEntry(ctx, e); err != nil {
			return statusMsg(fmt.Sprintf("saving entry: %v", err))
		}
		return reload()
	}
}

func (m Model) saveHighlightEntry(e model.HighlightEntry) tea.Cmd {
	s := m.store
	reload := m.loadEntries(journalview.KindHighlight, store.EntryFilter{})
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		if err := s.UpsertHighlightEntry(ctx, e); err != nil {
			return statusMsg(fmt.Sprintf("saving entry: %v", err))
		}
		return reload()
	}
}

func (m Model) deleteEntry(kind journalview.Kind, id string) tea.Cmd {
	s := m.store
	reload := m.loadEntries(kind, store.EntryFilter{})
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		var err error
		switch kind {
		case journalview.KindGratitude:
			err = s.DeleteGratitudeEntry(ctx, id)
		case journalview.KindHighlight:
			err = s.DeleteHighlightEntry(ctx, id)
		default:
			err = s.DeleteJournalEntry(ctx, id)
		}
		if err != nil {
			return statusMsg(fmt.Sprintf("deleting entry: %v", err))
		}
		return reload()
	}
}

func (m Model) loadPartner() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		p, err := s.GetPartner(ctx)
		if err != nil {
			return statusMsg(fmt.Sprintf("loading partner: %v", err))
		}
		return partnerLoadedMsg{partner: p}
	}
}

func (m Model) savePartner(p model.AccountabilityPartner) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		if err := s.SavePartner(ctx, p); err != nil {
			return statusMsg(fmt.Sprintf("saving partner: %v", err))
		}
		return partnerLoadedMsg{partner: &p}
	}
}

func (m Model) clearPartner() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		if err := s.ClearPartner(ctx); err != nil {
			return statusMsg(fmt.Sprintf("removing partner: %v", err))
		}
		return partnerLoadedMsg{partner: nil}
	}
}

// export writes both the JSON snapshot and the Excel workbook to the
// configured export directory.
func (m Model) export() tea.Cmd {
	s := m.store
	dir := m.cfg.Export.Dir
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		habits, err := s.GetHabits(ctx)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		journal, err := s.GetJournalEntries(ctx, store.EntryFilter{})
		if err != nil {
			return exportDoneMsg{err: err}
		}
		gratitude, err := s.GetGratitudeEntries(ctx, store.EntryFilter{})
		if err != nil {
			return exportDoneMsg{err: err}
		}
		highlights, err := s.GetHighlightEntries(ctx, store.EntryFilter{})
		if err != nil {
			return exportDoneMsg{err: err}
		}

		snap := export.NewSnapshot(habits, journal, gratitude, highlights, time.Now())
		if _, err := snap.WriteJSON(dir); err != nil {
			return exportDoneMsg{err: err}
		}
		if _, err := snap.WriteWorkbook(dir); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{dir: dir}
	}
}
