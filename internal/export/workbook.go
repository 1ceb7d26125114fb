package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nhle/daybook/internal/model"
)

// WriteWorkbook writes the snapshot to dir as an Excel workbook and
// returns the file path. The workbook carries a Summary sheet plus one
// sheet per entry kind; sheets with no data are omitted.
func (s Snapshot) WriteWorkbook(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	writeSummarySheet(f, s)
	if len(s.Journal) > 0 {
		writeJournalSheet(f, s.Journal)
	}
	if len(s.Gratitude) > 0 {
		writeGratitudeSheet(f, s.Gratitude)
	}
	if len(s.Highlights) > 0 {
		writeHighlightSheet(f, s.Highlights)
	}
	if len(s.Habits) > 0 {
		writeHabitSheet(f, s.Habits, s.ExportDate)
		writeHabitHistorySheet(f, s.Habits)
	}

	name := fmt.Sprintf("daybook_report_%s.xlsx", s.ExportDate.Format("2006-01-02"))
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("writing workbook: %w", err)
	}
	return path, nil
}

// setRows writes rows starting at A1 of the named sheet, creating the
// sheet if needed.
func setRows(f *excelize.File, sheet string, rows [][]interface{}) {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		f.NewSheet(sheet)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		_ = f.SetSheetRow(sheet, cell, &row)
	}
}

func writeSummarySheet(f *excelize.File, s Snapshot) {
	a := s.Analytics

	rows := [][]interface{}{
		{"Daybook Export Report"},
		{"Generated on:", s.ExportDate.Format("2006-01-02")},
		{},
		{"JOURNAL OVERVIEW"},
		{"Total Entries:", a.TotalEntries},
		{"Journal Entries:", a.JournalEntries},
		{"Gratitude Entries:", a.GratitudeEntries},
		{"Highlight Entries:", a.HighlightEntries},
		{"Average Entries per Week:", a.AverageEntriesPerWeek},
		{"Current Streak (days):", a.CurrentStreak},
		{"Longest Streak (days):", a.LongestStreak},
		{},
		{"HABIT TRACKING OVERVIEW"},
		{"Total Habits:", a.Habits.TotalHabits},
		{"Completed Today:", a.Habits.CompletedToday},
		{"Average Completion Rate:", fmt.Sprintf("%d%%", a.Habits.AverageCompletionRate)},
		{"Longest Habit Streak:", a.Habits.LongestHabitStreak},
		{},
		{"HABIT STREAKS"},
		{"Habit Name", "Current Streak"},
	}
	for _, hs := range a.Habits.HabitsByStreak {
		rows = append(rows, []interface{}{hs.Name, hs.Streak})
	}

	rows = append(rows, []interface{}{}, []interface{}{"MOOD ANALYTICS"},
		[]interface{}{"Mood", "Count", "Percentage"})
	for _, mc := range a.MoodCounts {
		rows = append(rows, []interface{}{mc.Mood, mc.Count, fmt.Sprintf("%d%%", mc.Percentage)})
	}

	months := make([]string, 0, len(a.EntriesByMonth))
	for m := range a.EntriesByMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	rows = append(rows, []interface{}{}, []interface{}{"ENTRIES BY MONTH"},
		[]interface{}{"Month", "Count"})
	for _, m := range months {
		rows = append(rows, []interface{}{m, a.EntriesByMonth[m]})
	}

	// The default sheet is renamed rather than added.
	_ = f.SetSheetName("Sheet1", "Summary")
	setRows(f, "Summary", rows)
}

func writeJournalSheet(f *excelize.File, entries []model.JournalEntry) {
	rows := [][]interface{}{
		{"Date", "Time", "Title", "Content", "Mood", "Tags"},
	}
	for _, e := range entries {
		rows = append(rows, []interface{}{
			e.Timestamp.Format("2006-01-02"),
			e.Timestamp.Format("15:04"),
			e.Title,
			e.Content,
			e.Mood,
			strings.Join(e.Tags, ", "),
		})
	}
	setRows(f, "Journal", rows)
}

func writeGratitudeSheet(f *excelize.File, entries []model.GratitudeEntry) {
	rows := [][]interface{}{
		{"Date", "Time", "Gratitude 1", "Gratitude 2", "Gratitude 3"},
	}
	for _, e := range entries {
		row := []interface{}{
			e.Timestamp.Format("2006-01-02"),
			e.Timestamp.Format("15:04"),
		}
		for i := 0; i < 3; i++ {
			if i < len(e.Items) {
				row = append(row, e.Items[i])
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	setRows(f, "Gratitude", rows)
}

func writeHighlightSheet(f *excelize.File, entries []model.HighlightEntry) {
	rows := [][]interface{}{
		{"Date", "Time", "Highlight", "Reason", "Mood"},
	}
	for _, e := range entries {
		rows = append(rows, []interface{}{
			e.Timestamp.Format("2006-01-02"),
			e.Timestamp.Format("15:04"),
			e.Highlight,
			e.Reason,
			e.Mood,
		})
	}
	setRows(f, "Highlights", rows)
}

func writeHabitSheet(f *excelize.File, habits []model.Habit, now time.Time) {
	rows := [][]interface{}{
		{"Habit Name", "Current Streak", "Created", "Completed Today", "Total Completions", "Completion Rate %"},
	}
	for _, h := range habits {
		var completions int
		for _, done := range h.CompletionsByDate {
			if done {
				completions++
			}
		}
		days := int(math.Ceil(now.Sub(h.CreatedAt).Hours() / 24))
		if days < 1 {
			days = 1
		}
		rate := int(math.Round(float64(completions) / float64(days) * 100))

		completed := "No"
		if h.Completed {
			completed = "Yes"
		}
		rows = append(rows, []interface{}{
			h.Name,
			h.Streak,
			h.CreatedAt.Format("2006-01-02"),
			completed,
			completions,
			rate,
		})
	}
	setRows(f, "Habits", rows)
}

// writeHabitHistorySheet renders one row per marked date with a column
// per habit.
func writeHabitHistorySheet(f *excelize.File, habits []model.Habit) {
	dateSet := make(map[string]bool)
	for _, h := range habits {
		for key := range h.CompletionsByDate {
			dateSet[key] = true
		}
	}
	if len(dateSet) == 0 {
		return
	}

	dates := make([]string, 0, len(dateSet))
	for key := range dateSet {
		dates = append(dates, key)
	}
	sort.Strings(dates)

	header := []interface{}{"Date"}
	for _, h := range habits {
		header = append(header, h.Name)
	}
	rows := [][]interface{}{header}

	for _, date := range dates {
		row := []interface{}{date}
		for _, h := range habits {
			if h.CompletionsByDate[date] {
				row = append(row, "✓")
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	setRows(f, "Habit History", rows)
}

