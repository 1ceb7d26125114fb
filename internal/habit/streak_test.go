package habit

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

// markRange marks n consecutive days complete, ending at end.
func markRange(c map[string]bool, end time.Time, n int) {
	for i := 0; i < n; i++ {
		c[Key(end.AddDate(0, 0, -i))] = true
	}
}

func TestCurrentStreak(t *testing.T) {
	today := day(2025, time.March, 15)

	tests := []struct {
		name  string
		setup func(map[string]bool)
		want  int
	}{
		{
			name:  "empty map",
			setup: func(c map[string]bool) {},
			want:  0,
		},
		{
			name: "only today",
			setup: func(c map[string]bool) {
				c[Key(today)] = true
			},
			want: 1,
		},
		{
			name: "five consecutive days ending today",
			setup: func(c map[string]bool) {
				markRange(c, today, 5)
			},
			want: 5,
		},
		{
			name: "today missing zeroes the streak despite prior run",
			setup: func(c map[string]bool) {
				markRange(c, today.AddDate(0, 0, -1), 10)
			},
			want: 0,
		},
		{
			name: "explicit false today zeroes the streak",
			setup: func(c map[string]bool) {
				markRange(c, today.AddDate(0, 0, -1), 3)
				c[Key(today)] = false
			},
			want: 0,
		},
		{
			name: "gap two days back stops the walk",
			setup: func(c map[string]bool) {
				c[Key(today)] = true
				c[Key(today.AddDate(0, 0, -1))] = true
				// day -2 absent
				c[Key(today.AddDate(0, 0, -3))] = true
			},
			want: 2,
		},
		{
			name: "streak across a month boundary",
			setup: func(c map[string]bool) {
				// 2025-03-15 back through 2025-02-26
				markRange(c, today, 18)
			},
			want: 18,
		},
		{
			name: "future completions are ignored",
			setup: func(c map[string]bool) {
				c[Key(today)] = true
				c[Key(today.AddDate(0, 0, 1))] = true
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := map[string]bool{}
			tt.setup(c)
			if got := CurrentStreak(c, today); got != tt.want {
				t.Errorf("CurrentStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentStreakLeapFebruary(t *testing.T) {
	// 2024-03-01 back across the leap day.
	today := day(2024, time.March, 1)
	c := map[string]bool{}
	markRange(c, today, 3) // Mar 1, Feb 29, Feb 28

	if got := CurrentStreak(c, today); got != 3 {
		t.Errorf("CurrentStreak() across leap day = %d, want 3", got)
	}
}

func TestStreakScenarioUnmarkToday(t *testing.T) {
	// Days 1-5 marked progressively; on day 5 the streak is 5. Un-marking
	// day 5 (today) drops the streak to 0 even though days 1-4 remain.
	today := day(2025, time.June, 5)
	c := map[string]bool{}
	markRange(c, today, 5)

	if got := CurrentStreak(c, today); got != 5 {
		t.Fatalf("CurrentStreak() before undo = %d, want 5", got)
	}

	c = Toggle(c, Key(today))
	if got := CurrentStreak(c, today); got != 0 {
		t.Errorf("CurrentStreak() after undoing today = %d, want 0", got)
	}
	for i := 1; i <= 4; i++ {
		if !c[Key(today.AddDate(0, 0, -i))] {
			t.Errorf("day -%d should remain complete after undoing today", i)
		}
	}
}
