package export

import (
	"math"
	"sort"
	"time"

	"github.com/nhle/daybook/internal/habit"
	"github.com/nhle/daybook/internal/model"
)

// MoodCount is the share of entries carrying a given mood.
type MoodCount struct {
	Mood       string `json:"mood"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// HabitStreak pairs a habit name with its current streak for ranking.
type HabitStreak struct {
	Name   string `json:"name"`
	Streak int    `json:"streak"`
}

// HabitAnalytics summarizes the habit tracker.
type HabitAnalytics struct {
	TotalHabits           int           `json:"totalHabits"`
	CompletedToday        int           `json:"completedToday"`
	AverageCompletionRate int           `json:"averageCompletionRate"`
	LongestHabitStreak    int           `json:"longestHabitStreak"`
	HabitsByStreak        []HabitStreak `json:"habitsByStreak"`
}

// Analytics summarizes all journaling and habit activity for reports.
type Analytics struct {
	TotalEntries          int            `json:"totalEntries"`
	JournalEntries        int            `json:"journalEntries"`
	GratitudeEntries      int            `json:"gratitudeEntries"`
	HighlightEntries      int            `json:"highlightEntries"`
	MoodCounts            []MoodCount    `json:"moodCounts"`
	EntriesByMonth        map[string]int `json:"entriesByMonth"`
	AverageEntriesPerWeek float64        `json:"averageEntriesPerWeek"`
	CurrentStreak         int            `json:"currentStreak"`
	LongestStreak         int            `json:"longestStreak"`
	Habits                HabitAnalytics `json:"habits"`
}

// BuildAnalytics computes the report summary for the given data as of
// now. Journaling streaks count days with at least one entry of any
// kind; a current streak survives a missing today as long as yesterday
// has an entry.
func BuildAnalytics(
	habits []model.Habit,
	journal []model.JournalEntry,
	gratitude []model.GratitudeEntry,
	highlights []model.HighlightEntry,
	now time.Time,
) Analytics {
	a := Analytics{
		JournalEntries:   len(journal),
		GratitudeEntries: len(gratitude),
		HighlightEntries: len(highlights),
		EntriesByMonth:   make(map[string]int),
	}
	a.TotalEntries = a.JournalEntries + a.GratitudeEntries + a.HighlightEntries

	moods := make(map[string]int)
	dates := make(map[string]bool)

	record := func(ts time.Time, mood string) {
		if mood != "" {
			moods[mood]++
		}
		a.EntriesByMonth[ts.Format("2006-01")]++
		dates[habit.Key(ts)] = true
	}
	for _, e := range journal {
		record(e.Timestamp, e.Mood)
	}
	for _, e := range gratitude {
		record(e.Timestamp, "")
	}
	for _, e := range highlights {
		record(e.Timestamp, e.Mood)
	}

	a.MoodCounts = moodCounts(moods)
	a.CurrentStreak, a.LongestStreak = journalStreaks(dates, now)

	if len(dates) > 0 {
		weeks := math.Max(1, math.Ceil(float64(len(dates))/7))
		a.AverageEntriesPerWeek = math.Round(float64(a.TotalEntries)/weeks*10) / 10
	}

	a.Habits = buildHabitAnalytics(habits, now)
	return a
}

func moodCounts(moods map[string]int) []MoodCount {
	total := 0
	for _, n := range moods {
		total += n
	}

	counts := make([]MoodCount, 0, len(moods))
	for mood, n := range moods {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(n) / float64(total) * 100))
		}
		counts = append(counts, MoodCount{Mood: mood, Count: n, Percentage: pct})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Mood < counts[j].Mood
	})
	return counts
}

// journalStreaks computes the current and longest runs of consecutive
// days with at least one entry. The current streak anchors on today or,
// when today has no entry yet, on yesterday.
func journalStreaks(dates map[string]bool, now time.Time) (current, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	keys := make([]string, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	run := 1
	for i := 1; i < len(keys); i++ {
		prev, err := habit.ParseKey(keys[i-1])
		if err == nil && habit.Key(prev.AddDate(0, 0, 1)) == keys[i] {
			run++
		} else {
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}

	anchor := now
	if !dates[habit.Key(anchor)] {
		anchor = anchor.AddDate(0, 0, -1)
	}
	for day := anchor; dates[habit.Key(day)]; day = day.AddDate(0, 0, -1) {
		current++
	}
	return current, longest
}

func buildHabitAnalytics(habits []model.Habit, now time.Time) HabitAnalytics {
	ha := HabitAnalytics{
		TotalHabits:    len(habits),
		HabitsByStreak: make([]HabitStreak, 0, len(habits)),
	}

	var totalCompletions, totalPossibleDays int
	for _, h := range habits {
		if h.Completed {
			ha.CompletedToday++
		}
		if h.Streak > ha.LongestHabitStreak {
			ha.LongestHabitStreak = h.Streak
		}
		ha.HabitsByStreak = append(ha.HabitsByStreak, HabitStreak{
			Name:   h.Name,
			Streak: h.Streak,
		})

		for _, done := range h.CompletionsByDate {
			if done {
				totalCompletions++
			}
		}
		days := int(math.Ceil(now.Sub(h.CreatedAt).Hours() / 24))
		if days < 1 {
			days = 1
		}
		totalPossibleDays += days
	}

	sort.Slice(ha.HabitsByStreak, func(i, j int) bool {
		if ha.HabitsByStreak[i].Streak != ha.HabitsByStreak[j].Streak {
			return ha.HabitsByStreak[i].Streak > ha.HabitsByStreak[j].Streak
		}
		return ha.HabitsByStreak[i].Name < ha.HabitsByStreak[j].Name
	})

	if totalPossibleDays > 0 {
		ha.AverageCompletionRate = int(math.Round(
			float64(totalCompletions) / float64(totalPossibleDays) * 100,
		))
	}
	return ha
}
