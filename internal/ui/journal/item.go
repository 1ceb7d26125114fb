package journal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/theme"
)

// JournalItem wraps a model.JournalEntry for the entry list.
type JournalItem struct {
	Entry model.JournalEntry
}

func (i JournalItem) FilterValue() string {
	return i.Entry.Title + " " + i.Entry.Content
}

// GratitudeItem wraps a model.GratitudeEntry for the entry list.
type GratitudeItem struct {
	Entry model.GratitudeEntry
}

func (i GratitudeItem) FilterValue() string {
	return strings.Join(i.Entry.Items, " ")
}

// HighlightItem wraps a model.HighlightEntry for the entry list.
type HighlightItem struct {
	Entry model.HighlightEntry
}

func (i HighlightItem) FilterValue() string {
	return i.Entry.Highlight + " " + i.Entry.Reason
}

// ItemDelegate renders one entry per line with its date, mood, and a
// content preview.
type ItemDelegate struct{}

func (d ItemDelegate) Height() int  { return 1 }
func (d ItemDelegate) Spacing() int { return 0 }

func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	var line string

	switch it := item.(type) {
	case JournalItem:
		e := it.Entry
		title := e.Title
		if title == "" {
			title = preview(e.Content, 40)
		}
		line = fmt.Sprintf("%s %s%s",
			e.Timestamp.Format("Jan 02"),
			title,
			moodBadge(e.Mood),
		)
	case GratitudeItem:
		e := it.Entry
		line = fmt.Sprintf("%s %s",
			e.Timestamp.Format("Jan 02"),
			preview(strings.Join(e.Items, "; "), 50),
		)
	case HighlightItem:
		e := it.Entry
		line = fmt.Sprintf("%s %s%s",
			e.Timestamp.Format("Jan 02"),
			preview(e.Highlight, 40),
			moodBadge(e.Mood),
		)
	default:
		return
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func moodBadge(mood string) string {
	if mood == "" {
		return ""
	}
	return " " + theme.MoodStyle(mood).Render(mood)
}

func preview(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
