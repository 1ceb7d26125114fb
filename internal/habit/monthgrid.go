package habit

import "time"

// MonthGrid is the calendar-week layout for one month: rows of exactly
// seven cells, padded with zeros before day 1 and after the last day.
// Weeks start on Sunday.
type MonthGrid struct {
	Year         int
	Month        time.Month
	DaysInMonth  int
	FirstWeekday int
	Weeks        [][]int
}

// BuildMonth lays out the calendar grid for the given month. It is a pure
// function of (year, month): every row has seven cells, cell value 0 marks
// padding, and the non-zero cells are exactly 1..DaysInMonth in order.
func BuildMonth(year int, month time.Month) MonthGrid {
	days := daysInMonth(year, month)
	first := int(time.Date(year, month, 1, 0, 0, 0, 0, time.Local).Weekday())

	total := first + days
	slots := total + (7-total%7)%7

	weeks := make([][]int, 0, slots/7)
	for i := 0; i < slots; i += 7 {
		week := make([]int, 7)
		for j := 0; j < 7; j++ {
			day := i + j - first + 1
			if day >= 1 && day <= days {
				week[j] = day
			}
		}
		weeks = append(weeks, week)
	}

	return MonthGrid{
		Year:         year,
		Month:        month,
		DaysInMonth:  days,
		FirstWeekday: first,
		Weeks:        weeks,
	}
}

// WeekOf returns the index of the week row containing the given
// day-of-month, or 0 when the day is out of range. Used to position the
// grid pager on the current week.
func (g MonthGrid) WeekOf(day int) int {
	if day < 1 || day > g.DaysInMonth {
		return 0
	}
	return (g.FirstWeekday + day - 1) / 7
}

// daysInMonth returns the number of days in the given month. Normalization
// of day 0 of the following month lands on the month's last day.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
