package habitlist

import (
	"testing"

	"github.com/nhle/daybook/internal/theme"
)

func TestDayCellStyleCompletedToday(t *testing.T) {
	st := dayCellStyle(true, true)

	if got, want := st.GetForeground(), theme.MarkedDayStyle.GetForeground(); got != want {
		t.Errorf("completed today foreground = %v, want completion color %v", got, want)
	}
	if got, want := st.GetBackground(), theme.TodayStyle.GetBackground(); got != want {
		t.Errorf("completed today background = %v, want today's background %v", got, want)
	}
}

func TestDayCellStyleSingleStates(t *testing.T) {
	if got, want := dayCellStyle(true, false).GetForeground(), theme.MarkedDayStyle.GetForeground(); got != want {
		t.Errorf("completed day foreground = %v, want %v", got, want)
	}
	if got, want := dayCellStyle(false, true).GetBackground(), theme.TodayStyle.GetBackground(); got != want {
		t.Errorf("today background = %v, want %v", got, want)
	}
	if got, want := dayCellStyle(false, false).GetForeground(), theme.PendingStyle.GetForeground(); got != want {
		t.Errorf("plain day foreground = %v, want %v", got, want)
	}
}
