package habitlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/daybook/internal/habit"
	"github.com/nhle/daybook/internal/keys"
	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/notify"
	"github.com/nhle/daybook/internal/theme"
)

// HabitsLoadedMsg is sent when habits have been loaded from the store.
type HabitsLoadedMsg struct {
	Habits []model.Habit
}

// ToggleRequestMsg asks the application to toggle today's completion
// for a habit.
type ToggleRequestMsg struct {
	HabitID string
}

// CreateRequestMsg asks the application to create a new habit.
type CreateRequestMsg struct {
	Name string
}

// EditRequestMsg asks the application to rename a habit and update its
// reminder settings.
type EditRequestMsg struct {
	HabitID    string
	Name       string
	Notify     bool
	NotifyTime string
}

// DeleteRequestMsg asks the application to delete a habit.
type DeleteRequestMsg struct {
	HabitID string
}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name       string
	notify     bool
	notifyTime string
}

type formMode int

const (
	formNone formMode = iota
	formCreate
	formEdit
)

// Model is the habit tracker view: a habit list on the left and the
// selected habit's month calendar on the right.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	form        *huh.Form
	fb          *formBindings
	mode        formMode
	editID      string
	monthOffset int
	now         func() time.Time
	width       int
	height      int
}

// New creates a new habit list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width/2, height-2)
	l.Title = "Habits"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		fb:     &formBindings{},
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SelectedHabit returns the currently selected habit, if any.
func (m Model) SelectedHabit() (model.Habit, bool) {
	item, ok := m.list.SelectedItem().(HabitItem)
	if !ok {
		return model.Habit{}, false
	}
	return item.Habit, true
}

// Update handles messages for the habit view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HabitsLoadedMsg:
		items := make([]list.Item, len(msg.Habits))
		for i, h := range msg.Habits {
			items[i] = HabitItem{Habit: h}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.mode != formNone {
			return m.updateForm(msg)
		}
		return m.handleKeys(msg)
	}

	if m.mode != formNone {
		return m.updateForm(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		h, ok := m.SelectedHabit()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return ToggleRequestMsg{HabitID: h.ID}
		}

	case key.Matches(msg, m.keys.PrevMonth):
		m.monthOffset--
		return m, nil

	case key.Matches(msg, m.keys.NextMonth):
		if m.monthOffset < 0 {
			m.monthOffset++
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.mode = formCreate
		m.fb.name = ""
		m.form = m.buildCreateForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		h, ok := m.SelectedHabit()
		if !ok {
			return m, nil
		}
		m.mode = formEdit
		m.editID = h.ID
		m.fb.name = h.Name
		m.fb.notify = h.Notify
		m.fb.notifyTime = h.NotifyTime
		m.form = m.buildEditForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		h, ok := m.SelectedHabit()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return DeleteRequestMsg{HabitID: h.ID}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		mode := m.mode
		m.mode = formNone
		if mode == formCreate {
			name := m.fb.name
			return m, func() tea.Msg {
				return CreateRequestMsg{Name: name}
			}
		}
		req := EditRequestMsg{
			HabitID:    m.editID,
			Name:       m.fb.name,
			Notify:     m.fb.notify,
			NotifyTime: m.fb.notifyTime,
		}
		return m, func() tea.Msg { return req }
	}
	if m.form.State == huh.StateAborted {
		m.mode = formNone
		return m, nil
	}

	return m, cmd
}

func (m *Model) buildCreateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit name").
				Placeholder("What do you want to build?").
				Value(&m.fb.name).
				Validate(validateName),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildEditForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit name").
				Value(&m.fb.name).
				Validate(validateName),
			huh.NewConfirm().
				Title("Daily reminder").
				Value(&m.fb.notify),
			huh.NewInput().
				Title("Reminder time").
				Placeholder("HH:MM").
				Value(&m.fb.notifyTime).
				Validate(validateOptionalTime),
		),
	).WithWidth(m.formWidth())
}

// View renders the habit view.
func (m Model) View() string {
	if m.mode != formNone && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No habits yet.\n\nPress 'n' to create your first habit.")
	}

	calendar := ""
	if h, ok := m.SelectedHabit(); ok {
		calendar = m.renderCalendar(h)
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.list.View(),
		theme.BorderStyle.Padding(0, 2).Render(calendar),
	)
}

// renderCalendar draws the month grid for a habit, marking completed
// days and highlighting today.
func (m Model) renderCalendar(h model.Habit) string {
	now := m.now()
	anchor := now.AddDate(0, m.monthOffset, 0)
	grid := habit.BuildMonth(anchor.Year(), anchor.Month())

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(
		fmt.Sprintf("%s %d", grid.Month, grid.Year),
	))
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("Su Mo Tu We Th Fr Sa"))
	b.WriteString("\n")

	todayKey := habit.Key(now)
	for _, week := range grid.Weeks {
		cells := make([]string, 0, len(week))
		for _, day := range week {
			if day == 0 {
				cells = append(cells, "  ")
				continue
			}
			dayKey := habit.Key(time.Date(
				grid.Year, grid.Month, day, 0, 0, 0, 0, now.Location(),
			))
			cell := dayCellStyle(
				h.CompletionsByDate[dayKey], dayKey == todayKey,
			).Render(fmt.Sprintf("%2d", day))
			cells = append(cells, cell)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.StreakStyle(h.Streak).Render(
		fmt.Sprintf("Current streak: %d days", h.Streak),
	))
	return b.String()
}

// dayCellStyle picks the calendar cell style. A completed today keeps
// the completion mark and gains today's background so neither signal
// is lost.
func dayCellStyle(completed, today bool) lipgloss.Style {
	switch {
	case completed && today:
		return theme.MarkedDayStyle.Background(theme.ColorBlue)
	case completed:
		return theme.MarkedDayStyle
	case today:
		return theme.TodayStyle
	default:
		return theme.PendingStyle
	}
}

// InputActive reports whether a form currently owns keyboard input.
func (m Model) InputActive() bool {
	return m.mode != formNone
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width/2, height-2)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func validateOptionalTime(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !notify.ValidReminderTime(s) {
		return fmt.Errorf("invalid time, use HH:MM")
	}
	return nil
}
