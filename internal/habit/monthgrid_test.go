package habit

import (
	"testing"
	"time"
)

func TestBuildMonthRowsAndCells(t *testing.T) {
	// Every month over several years: rows all length 7, non-zero cells
	// exactly 1..DaysInMonth in order, padding only at the edges.
	for year := 2020; year <= 2026; year++ {
		for month := time.January; month <= time.December; month++ {
			g := BuildMonth(year, month)

			var seen []int
			for wi, week := range g.Weeks {
				if len(week) != 7 {
					t.Fatalf("%d-%02d week %d has %d cells", year, month, wi, len(week))
				}
				for _, cell := range week {
					if cell != 0 {
						seen = append(seen, cell)
					}
				}
			}

			if len(seen) != g.DaysInMonth {
				t.Fatalf("%d-%02d: %d non-zero cells, want %d", year, month, len(seen), g.DaysInMonth)
			}
			for i, d := range seen {
				if d != i+1 {
					t.Fatalf("%d-%02d: cell %d = %d, want %d", year, month, i, d, i+1)
				}
			}
		}
	}
}

func TestBuildMonthKnownLayouts(t *testing.T) {
	tests := []struct {
		name         string
		year         int
		month        time.Month
		days         int
		firstWeekday int
		weekRows     int
	}{
		// March 2025 starts on a Saturday.
		{"march 2025", 2025, time.March, 31, 6, 6},
		// February 2015 starts on a Sunday and fits exactly 4 rows.
		{"february 2015", 2015, time.February, 28, 0, 4},
		// Leap February.
		{"february 2024", 2024, time.February, 29, 4, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := BuildMonth(tt.year, tt.month)
			if g.DaysInMonth != tt.days {
				t.Errorf("DaysInMonth = %d, want %d", g.DaysInMonth, tt.days)
			}
			if g.FirstWeekday != tt.firstWeekday {
				t.Errorf("FirstWeekday = %d, want %d", g.FirstWeekday, tt.firstWeekday)
			}
			if len(g.Weeks) != tt.weekRows {
				t.Errorf("weeks = %d, want %d", len(g.Weeks), tt.weekRows)
			}
		})
	}
}

func TestBuildMonthDeterministic(t *testing.T) {
	a := BuildMonth(2025, time.July)
	b := BuildMonth(2025, time.July)

	for i := range a.Weeks {
		for j := range a.Weeks[i] {
			if a.Weeks[i][j] != b.Weeks[i][j] {
				t.Fatalf("grid differs at [%d][%d]", i, j)
			}
		}
	}
}

func TestWeekOf(t *testing.T) {
	g := BuildMonth(2025, time.March) // starts Saturday: day 1 in week 0

	tests := []struct {
		day  int
		want int
	}{
		{1, 0},
		{2, 1},
		{8, 1},
		{9, 2},
		{31, 5},
		{0, 0},  // out of range
		{40, 0}, // out of range
	}

	for _, tt := range tests {
		if got := g.WeekOf(tt.day); got != tt.want {
			t.Errorf("WeekOf(%d) = %d, want %d", tt.day, got, tt.want)
		}
	}
}
