package export

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nhle/daybook/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func sampleData() ([]model.Habit, []model.JournalEntry, []model.GratitudeEntry, []model.HighlightEntry) {
	habits := []model.Habit{
		{
			ID:   "h1",
			Name: "Read",
			CompletionsByDate: map[string]bool{
				"2025-03-13": true,
				"2025-03-14": true,
				"2025-03-15": true,
			},
			Completed: true,
			Streak:    3,
			CreatedAt: date(2025, time.March, 10),
		},
		{
			ID:        "h2",
			Name:      "Run",
			Streak:    0,
			CreatedAt: date(2025, time.March, 12),
		},
	}
	journal := []model.JournalEntry{
		{ID: "j1", Content: "a", Mood: "calm", Timestamp: date(2025, time.March, 13)},
		{ID: "j2", Content: "b", Mood: "calm", Timestamp: date(2025, time.March, 14)},
	}
	gratitude := []model.GratitudeEntry{
		{ID: "g1", Items: []string{"x", "y", "z"}, Timestamp: date(2025, time.March, 15)},
	}
	highlights := []model.HighlightEntry{
		{ID: "hl1", Highlight: "shipped", Mood: "proud", Timestamp: date(2025, time.March, 15)},
	}
	return habits, journal, gratitude, highlights
}

func TestBuildAnalytics(t *testing.T) {
	habits, journal, gratitude, highlights := sampleData()
	now := date(2025, time.March, 15)

	a := BuildAnalytics(habits, journal, gratitude, highlights, now)

	if a.TotalEntries != 4 {
		t.Errorf("TotalEntries = %d, want 4", a.TotalEntries)
	}
	if a.JournalEntries != 2 || a.GratitudeEntries != 1 || a.HighlightEntries != 1 {
		t.Errorf("entry counts = %d/%d/%d", a.JournalEntries, a.GratitudeEntries, a.HighlightEntries)
	}

	// Entries span March 13..15 with no gaps.
	if a.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", a.CurrentStreak)
	}
	if a.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", a.LongestStreak)
	}

	if a.EntriesByMonth["2025-03"] != 4 {
		t.Errorf("EntriesByMonth = %v", a.EntriesByMonth)
	}

	// calm twice, proud once.
	if len(a.MoodCounts) != 2 {
		t.Fatalf("MoodCounts = %+v", a.MoodCounts)
	}
	if a.MoodCounts[0].Mood != "calm" || a.MoodCounts[0].Count != 2 || a.MoodCounts[0].Percentage != 67 {
		t.Errorf("top mood = %+v", a.MoodCounts[0])
	}

	if a.Habits.TotalHabits != 2 || a.Habits.CompletedToday != 1 || a.Habits.LongestHabitStreak != 3 {
		t.Errorf("habit analytics = %+v", a.Habits)
	}
	if a.Habits.HabitsByStreak[0].Name != "Read" {
		t.Errorf("habit ranking = %+v", a.Habits.HabitsByStreak)
	}
}

func TestCurrentStreakAnchorsOnYesterday(t *testing.T) {
	journal := []model.JournalEntry{
		{ID: "j1", Content: "a", Timestamp: date(2025, time.March, 13)},
		{ID: "j2", Content: "b", Timestamp: date(2025, time.March, 14)},
	}
	// Nothing written today yet; the streak holds through yesterday.
	a := BuildAnalytics(nil, journal, nil, nil, date(2025, time.March, 15))
	if a.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", a.CurrentStreak)
	}

	// A two-day gap breaks it.
	a = BuildAnalytics(nil, journal, nil, nil, date(2025, time.March, 17))
	if a.CurrentStreak != 0 {
		t.Errorf("CurrentStreak after gap = %d, want 0", a.CurrentStreak)
	}
}

func TestLongestStreakAcrossGap(t *testing.T) {
	journal := []model.JournalEntry{
		{ID: "j1", Content: "a", Timestamp: date(2025, time.March, 1)},
		{ID: "j2", Content: "b", Timestamp: date(2025, time.March, 2)},
		{ID: "j3", Content: "c", Timestamp: date(2025, time.March, 3)},
		{ID: "j4", Content: "d", Timestamp: date(2025, time.March, 10)},
	}
	a := BuildAnalytics(nil, journal, nil, nil, date(2025, time.March, 20))
	if a.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", a.LongestStreak)
	}
}

func TestWriteJSON(t *testing.T) {
	habits, journal, gratitude, highlights := sampleData()
	snap := NewSnapshot(habits, journal, gratitude, highlights, date(2025, time.March, 15))

	dir := t.TempDir()
	path, err := snap.WriteJSON(dir)
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshaling export: %v", err)
	}
	if len(got.Habits) != 2 || len(got.Journal) != 2 {
		t.Errorf("export content: habits=%d journal=%d", len(got.Habits), len(got.Journal))
	}
	if !got.Habits[0].CompletionsByDate["2025-03-15"] {
		t.Errorf("completion map lost: %v", got.Habits[0].CompletionsByDate)
	}
	if got.Analytics.TotalEntries != 4 {
		t.Errorf("analytics lost: %+v", got.Analytics)
	}
}

func TestWriteWorkbook(t *testing.T) {
	habits, journal, gratitude, highlights := sampleData()
	snap := NewSnapshot(habits, journal, gratitude, highlights, date(2025, time.March, 15))

	dir := t.TempDir()
	path, err := snap.WriteWorkbook(dir)
	if err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	want := []string{"Summary", "Journal", "Gratitude", "Highlights", "Habits", "Habit History"}
	got := f.GetSheetList()
	sheetSet := make(map[string]bool, len(got))
	for _, name := range got {
		sheetSet[name] = true
	}
	for _, name := range want {
		if !sheetSet[name] {
			t.Errorf("missing sheet %q, have %v", name, got)
		}
	}

	// Habit history marks completions per date column.
	rows, err := f.GetRows("Habit History")
	if err != nil {
		t.Fatalf("reading habit history: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("habit history rows = %d, want header + 3 dates", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][1] != "Read" {
		t.Errorf("habit history header = %v", rows[0])
	}
	if rows[1][0] != "2025-03-13" || rows[1][1] != "✓" {
		t.Errorf("habit history first row = %v", rows[1])
	}
}

func TestWorkbookOmitsEmptySheets(t *testing.T) {
	snap := NewSnapshot(nil, nil, nil, nil, date(2025, time.March, 15))

	path, err := snap.WriteWorkbook(t.TempDir())
	if err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Summary" {
		t.Errorf("sheets = %v, want only Summary", got)
	}
}
