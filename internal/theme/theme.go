package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// CompletedStyle marks a habit completed today.
var CompletedStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// PendingStyle marks a habit not yet completed today.
var PendingStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// MarkedDayStyle highlights a completed day in the calendar grid.
var MarkedDayStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// TodayStyle highlights today's cell in the calendar grid.
var TodayStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue)

// StreakStyle returns a color-coded style for the given streak length.
// Longer streaks get warmer colors.
func StreakStyle(streak int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case streak >= 30:
		return base.Foreground(ColorMagenta)
	case streak >= 14:
		return base.Foreground(ColorOrange)
	case streak >= 7:
		return base.Foreground(ColorYellow)
	case streak >= 1:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// MoodStyle returns a color-coded style for the given mood label.
func MoodStyle(mood string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch mood {
	case "great", "proud":
		return base.Foreground(ColorGreen)
	case "good", "calm":
		return base.Foreground(ColorBlue)
	case "okay":
		return base.Foreground(ColorYellow)
	case "bad", "sad":
		return base.Foreground(ColorOrange)
	case "awful", "angry":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}
