package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/daybook/internal/keys"
	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/store"
	"github.com/nhle/daybook/internal/theme"
)

// Kind selects which entry list is shown.
type Kind int

const (
	KindJournal Kind = iota
	KindGratitude
	KindHighlight
)

// String returns the display label for the kind.
func (k Kind) String() string {
	switch k {
	case KindGratitude:
		return "Gratitude"
	case KindHighlight:
		return "Highlights"
	default:
		return "Journal"
	}
}

// EntriesLoadedMsg delivers a reloaded entry list. Only the slice
// matching Kind is populated.
type EntriesLoadedMsg struct {
	Kind       Kind
	Journal    []model.JournalEntry
	Gratitude  []model.GratitudeEntry
	Highlights []model.HighlightEntry
}

// ReloadRequestMsg asks the application to reload entries of a kind
// with the given filter.
type ReloadRequestMsg struct {
	Kind   Kind
	Filter store.EntryFilter
}

// SaveJournalMsg asks the application to persist a journal entry.
type SaveJournalMsg struct {
	Entry model.JournalEntry
}

// SaveGratitudeMsg asks the application to persist a gratitude entry.
type SaveGratitudeMsg struct {
	Entry model.GratitudeEntry
}

// SaveHighlightMsg asks the application to persist a highlight entry.
type SaveHighlightMsg struct {
	Entry model.HighlightEntry
}

// DeleteRequestMsg asks the application to delete an entry.
type DeleteRequestMsg struct {
	Kind Kind
	ID   string
}

// moodOptions are the selectable moods for journal and highlight
// entries.
var moodOptions = []huh.Option[string]{
	huh.NewOption("(none)", ""),
	huh.NewOption("Great", "great"),
	huh.NewOption("Good", "good"),
	huh.NewOption("Calm", "calm"),
	huh.NewOption("Okay", "okay"),
	huh.NewOption("Sad", "sad"),
	huh.NewOption("Angry", "angry"),
}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title   string
	content string
	mood    string
	tags    string

	item1 string
	item2 string
	item3 string

	highlight string
	reason    string
}

// cycleKind switches between the three entry lists.
var cycleKind = key.NewBinding(
	key.WithKeys("tab"),
	key.WithHelp("tab", "switch entry kind"),
)

// Model is the journal view: three switchable entry lists with search
// and create/edit forms.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	kind        Kind
	form        *huh.Form
	fb          *formBindings
	formOpen    bool
	editID      string
	editTS      time.Time
	searchMode  bool
	searchInput textinput.Model
	filter      store.EntryFilter
	now         func() time.Time
	width       int
	height      int
}

// New creates a new journal view model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Journal"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search entries..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		fb:          &formBindings{},
		searchInput: si,
		now:         time.Now,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial entry list.
func (m Model) Init() tea.Cmd {
	return m.reload()
}

// Kind returns the currently displayed entry kind.
func (m Model) Kind() Kind {
	return m.kind
}

// Update handles messages for the journal view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EntriesLoadedMsg:
		if msg.Kind != m.kind {
			return m, nil
		}
		var items []list.Item
		switch msg.Kind {
		case KindGratitude:
			for _, e := range msg.Gratitude {
				items = append(items, GratitudeItem{Entry: e})
			}
		case KindHighlight:
			for _, e := range msg.Highlights {
				items = append(items, HighlightItem{Entry: e})
			}
		default:
			for _, e := range msg.Journal {
				items = append(items, JournalItem{Entry: e})
			}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.formOpen {
			return m.updateForm(msg)
		}
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)
	}

	if m.formOpen {
		return m.updateForm(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		if query != "" {
			m.filter.Query = &query
		} else {
			m.filter.Query = nil
		}
		return m, m.reload()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = nil
		return m, m.reload()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, cycleKind):
		m.kind = (m.kind + 1) % 3
		m.list.Title = m.kind.String()
		return m, m.reload()

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.New):
		m.formOpen = true
		m.editID = ""
		m.editTS = time.Time{}
		m.resetBindings()
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		if !m.startEdit() {
			return m, nil
		}
		m.formOpen = true
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		kind := m.kind
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			return DeleteRequestMsg{Kind: kind, ID: id}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) resetBindings() {
	*m.fb = formBindings{}
}

// startEdit seeds the form bindings from the selected entry. It
// reports false when nothing is selected.
func (m *Model) startEdit() bool {
	switch it := m.list.SelectedItem().(type) {
	case JournalItem:
		e := it.Entry
		m.editID = e.ID
		m.editTS = e.Timestamp
		m.fb.title = e.Title
		m.fb.content = e.Content
		m.fb.mood = e.Mood
		m.fb.tags = strings.Join(e.Tags, ", ")
		return true
	case GratitudeItem:
		e := it.Entry
		m.editID = e.ID
		m.editTS = e.Timestamp
		m.fb.item1, m.fb.item2, m.fb.item3 = "", "", ""
		if len(e.Items) > 0 {
			m.fb.item1 = e.Items[0]
		}
		if len(e.Items) > 1 {
			m.fb.item2 = e.Items[1]
		}
		if len(e.Items) > 2 {
			m.fb.item3 = e.Items[2]
		}
		return true
	case HighlightItem:
		e := it.Entry
		m.editID = e.ID
		m.editTS = e.Timestamp
		m.fb.highlight = e.Highlight
		m.fb.reason = e.Reason
		m.fb.mood = e.Mood
		return true
	}
	return false
}

func (m *Model) selectedID() string {
	switch it := m.list.SelectedItem().(type) {
	case JournalItem:
		return it.Entry.ID
	case GratitudeItem:
		return it.Entry.ID
	case HighlightItem:
		return it.Entry.ID
	}
	return ""
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formOpen = false
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		m.formOpen = false
		return m, nil
	}

	return m, cmd
}

func (m Model) handleSubmit() tea.Cmd {
	id := m.editID
	now := m.now()
	if id == "" {
		id = model.NewEntryID()
	} else if !m.editTS.IsZero() {
		// Edits keep the entry's original timestamp.
		now = m.editTS
	}

	switch m.kind {
	case KindGratitude:
		var items []string
		for _, it := range []string{m.fb.item1, m.fb.item2, m.fb.item3} {
			if strings.TrimSpace(it) != "" {
				items = append(items, strings.TrimSpace(it))
			}
		}
		entry := model.GratitudeEntry{ID: id, Items: items, Timestamp: now}
		return func() tea.Msg { return SaveGratitudeMsg{Entry: entry} }

	case KindHighlight:
		entry := model.HighlightEntry{
			ID:        id,
			Highlight: m.fb.highlight,
			Reason:    m.fb.reason,
			Mood:      m.fb.mood,
			Timestamp: now,
		}
		return func() tea.Msg { return SaveHighlightMsg{Entry: entry} }

	default:
		entry := model.JournalEntry{
			ID:        id,
			Title:     m.fb.title,
			Content:   m.fb.content,
			Mood:      m.fb.mood,
			Tags:      splitTags(m.fb.tags),
			Timestamp: now,
		}
		return func() tea.Msg { return SaveJournalMsg{Entry: entry} }
	}
}

func (m *Model) buildForm() *huh.Form {
	var group *huh.Group

	switch m.kind {
	case KindGratitude:
		group = huh.NewGroup(
			huh.NewInput().
				Title("I'm grateful for...").
				Value(&m.fb.item1).
				Validate(validateRequired("First item")),
			huh.NewInput().
				Title("And also...").
				Value(&m.fb.item2),
			huh.NewInput().
				Title("And finally...").
				Value(&m.fb.item3),
		)
	case KindHighlight:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Highlight of the day").
				Value(&m.fb.highlight).
				Validate(validateRequired("Highlight")),
			huh.NewText().
				Title("Why was it special?").
				Value(&m.fb.reason),
			huh.NewSelect[string]().
				Title("Mood").
				Options(moodOptions...).
				Value(&m.fb.mood),
		)
	default:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Optional title").
				Value(&m.fb.title),
			huh.NewText().
				Title("What's on your mind?").
				Value(&m.fb.content).
				Validate(validateRequired("Content")),
			huh.NewSelect[string]().
				Title("Mood").
				Options(moodOptions...).
				Value(&m.fb.mood),
			huh.NewInput().
				Title("Tags").
				Placeholder("comma, separated").
				Value(&m.fb.tags),
		)
	}

	return huh.NewForm(group).WithWidth(m.formWidth())
}

// View renders the journal view.
func (m Model) View() string {
	if m.formOpen && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(fmt.Sprintf(
				"No %s entries yet.\n\nPress 'n' to write one, tab to switch lists.",
				strings.ToLower(m.kind.String()),
			))
	}

	return m.list.View()
}

// reload returns a tea.Cmd asking the application to reload the
// current list.
func (m Model) reload() tea.Cmd {
	kind := m.kind
	filter := m.filter
	return func() tea.Msg {
		return ReloadRequestMsg{Kind: kind, Filter: filter}
	}
}

// InputActive reports whether a form or the search prompt currently
// owns keyboard input.
func (m Model) InputActive() bool {
	return m.formOpen || m.searchMode
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
