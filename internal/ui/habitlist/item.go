package habitlist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/theme"
)

// HabitItem wraps a model.Habit so it can be used in a bubbles/list.
type HabitItem struct {
	Habit model.Habit
}

// FilterValue returns the string used for fuzzy filtering.
func (i HabitItem) FilterValue() string { return i.Habit.Name }

// ItemDelegate implements list.ItemDelegate for rendering habit rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single habit line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	hi, ok := item.(HabitItem)
	if !ok {
		return
	}

	h := hi.Habit
	isSelected := index == m.Index()

	var prefix string
	if h.Completed {
		prefix = theme.CompletedStyle.Render("✓")
	} else {
		prefix = theme.PendingStyle.Render("○")
	}

	streakBadge := ""
	if h.Streak > 0 {
		streakBadge = theme.StreakStyle(h.Streak).Render(
			fmt.Sprintf(" 🔥%d", h.Streak),
		)
	}

	reminderBadge := ""
	if h.Notify && h.NotifyTime != "" {
		reminderBadge = theme.HelpStyle.Render(" ⏰" + h.NotifyTime)
	}

	line := fmt.Sprintf("%s %s%s%s", prefix, h.Name, streakBadge, reminderBadge)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
