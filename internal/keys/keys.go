package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Manual sync
	Sync key.Binding

	// View switching
	ViewHabits    key.Binding
	ViewJournal   key.Binding
	ViewPartner   key.Binding
	ViewAssistant key.Binding

	// Habit actions
	Toggle    key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding

	// Entry actions
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding

	// Export
	Export key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search entries"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Sync: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "sync now"),
		),
		ViewHabits: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "habits"),
		),
		ViewJournal: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "journal"),
		),
		ViewPartner: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "partner"),
		),
		ViewAssistant: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "assistant"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle today"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next month"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Toggle, k.Select,
		k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.ViewHabits, k.ViewJournal, k.ViewPartner, k.ViewAssistant, k.Help},
		{k.Toggle, k.PrevMonth, k.NextMonth, k.Sync},
		{k.New, k.Edit, k.Delete, k.Search, k.Export},
	}
}
