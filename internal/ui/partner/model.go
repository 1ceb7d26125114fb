package partner

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/daybook/internal/keys"
	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/theme"
)

// PartnerLoadedMsg delivers the stored partner configuration. Partner
// is nil when none is configured.
type PartnerLoadedMsg struct {
	Partner *model.AccountabilityPartner
}

// SaveRequestMsg asks the application to persist the partner.
type SaveRequestMsg struct {
	Partner model.AccountabilityPartner
}

// ClearRequestMsg asks the application to remove the partner.
type ClearRequestMsg struct{}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name    string
	phone   string
	enabled bool
}

// Model is the accountability partner settings view.
type Model struct {
	keys     *keys.KeyMap
	partner  *model.AccountabilityPartner
	form     *huh.Form
	fb       *formBindings
	formOpen bool
	width    int
	height   int
}

// New creates a new partner view model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the partner view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PartnerLoadedMsg:
		m.partner = msg.Partner
		return m, nil

	case tea.KeyMsg:
		if m.formOpen {
			return m.updateForm(msg)
		}
		return m.handleKeys(msg)
	}

	if m.formOpen {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.New), key.Matches(msg, m.keys.Edit):
		m.formOpen = true
		if m.partner != nil {
			m.fb.name = m.partner.Name
			m.fb.phone = m.partner.PhoneNumber
			m.fb.enabled = m.partner.Enabled
		} else {
			*m.fb = formBindings{enabled: true}
		}
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if m.partner == nil {
			return m, nil
		}
		return m, func() tea.Msg { return ClearRequestMsg{} }
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formOpen = false
		p := model.AccountabilityPartner{
			Name:        strings.TrimSpace(m.fb.name),
			PhoneNumber: strings.TrimSpace(m.fb.phone),
			Enabled:     m.fb.enabled,
		}
		return m, func() tea.Msg { return SaveRequestMsg{Partner: p} }
	}
	if m.form.State == huh.StateAborted {
		m.formOpen = false
		return m, nil
	}

	return m, cmd
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Partner name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Phone number").
				Placeholder("+1 555 123 4567").
				Value(&m.fb.phone).
				Validate(validatePhone),
			huh.NewConfirm().
				Title("Send completion notifications").
				Value(&m.fb.enabled),
		),
	).WithWidth(m.formWidth())
}

// View renders the partner view.
func (m Model) View() string {
	if m.formOpen && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	if m.partner == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(
				"No accountability partner configured.\n\n" +
					"Press 'n' to add one. They'll get a message\n" +
					"whenever you complete a habit.",
			)
	}

	status := theme.PendingStyle.Render("notifications off")
	if m.partner.Enabled {
		status = theme.CompletedStyle.Render("notifications on")
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		theme.HeaderStyle.Render("Accountability Partner"),
		"",
		fmt.Sprintf("Name:   %s", m.partner.Name),
		fmt.Sprintf("Phone:  %s", m.partner.PhoneNumber),
		fmt.Sprintf("Status: %s", status),
		"",
		theme.HelpStyle.Render("e edit · d remove"),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// InputActive reports whether the partner form currently owns keyboard
// input.
func (m Model) InputActive() bool {
	return m.formOpen
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

func validatePhone(s string) error {
	p := model.AccountabilityPartner{PhoneNumber: s}
	if !p.ValidPhone() {
		return fmt.Errorf("phone must contain 10-15 digits")
	}
	return nil
}
