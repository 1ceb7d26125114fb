package store_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/store"
	"github.com/nhle/daybook/tests/testutil"
)

func TestHabitRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created := time.Date(2025, time.January, 10, 8, 30, 0, 0, time.UTC)
	h := model.Habit{
		ID:   "habit-1",
		Name: "Read",
		CompletionsByDate: map[string]bool{
			"2025-03-14": true,
			"2025-03-15": true,
		},
		Completed:      true,
		Streak:         2,
		CreatedAt:      created,
		Notify:         true,
		NotifyTime:     "09:30",
		NotificationID: "notif-abc",
	}

	if err := s.UpsertHabit(ctx, h); err != nil {
		t.Fatalf("UpsertHabit: %v", err)
	}

	habits, err := s.GetHabits(ctx)
	if err != nil {
		t.Fatalf("GetHabits: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("got %d habits, want 1", len(habits))
	}

	got := habits[0]
	if got.ID != h.ID || got.Name != h.Name || got.Streak != h.Streak ||
		got.Completed != h.Completed || got.Notify != h.Notify ||
		got.NotifyTime != h.NotifyTime || got.NotificationID != h.NotificationID {
		t.Errorf("habit fields differ: got %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if !reflect.DeepEqual(got.CompletionsByDate, h.CompletionsByDate) {
		t.Errorf("completions = %v, want %v", got.CompletionsByDate, h.CompletionsByDate)
	}
}

func TestSaveHabitsReplacesSet(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []model.Habit{
		{ID: "a", Name: "Read", CreatedAt: now},
		{ID: "b", Name: "Run", CreatedAt: now.Add(time.Second)},
	}
	if err := s.SaveHabits(ctx, first); err != nil {
		t.Fatalf("SaveHabits: %v", err)
	}

	// A second save with habit b removed must drop it from storage.
	second := []model.Habit{
		{ID: "a", Name: "Read more", CreatedAt: now},
	}
	if err := s.SaveHabits(ctx, second); err != nil {
		t.Fatalf("SaveHabits: %v", err)
	}

	habits, err := s.GetHabits(ctx)
	if err != nil {
		t.Fatalf("GetHabits: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("got %d habits, want 1", len(habits))
	}
	if habits[0].ID != "a" || habits[0].Name != "Read more" {
		t.Errorf("unexpected habit after replace: %+v", habits[0])
	}
}

func TestDeleteHabit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	h := model.Habit{ID: "a", Name: "Read", CreatedAt: time.Now().UTC()}
	if err := s.UpsertHabit(ctx, h); err != nil {
		t.Fatalf("UpsertHabit: %v", err)
	}
	if err := s.DeleteHabit(ctx, "a"); err != nil {
		t.Fatalf("DeleteHabit: %v", err)
	}

	habits, err := s.GetHabits(ctx)
	if err != nil {
		t.Fatalf("GetHabits: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("got %d habits after delete, want 0", len(habits))
	}
}

func TestJournalEntryRoundTripAndFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	entries := []model.JournalEntry{
		{
			ID:        "e1",
			Title:     "Morning pages",
			Content:   "Slow start but productive afternoon",
			Mood:      "calm",
			Tags:      []string{"work", "focus"},
			Timestamp: time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:        "e2",
			Content:   "Long run by the river",
			Mood:      "great",
			Timestamp: time.Date(2025, time.March, 15, 19, 0, 0, 0, time.UTC),
		},
	}
	for _, e := range entries {
		if err := s.UpsertJournalEntry(ctx, e); err != nil {
			t.Fatalf("UpsertJournalEntry(%s): %v", e.ID, err)
		}
	}

	all, err := s.GetJournalEntries(ctx, store.EntryFilter{})
	if err != nil {
		t.Fatalf("GetJournalEntries: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d entries, want 2", len(all))
	}
	// Newest first.
	if all[0].ID != "e2" {
		t.Errorf("first entry = %s, want e2", all[0].ID)
	}
	if !reflect.DeepEqual(all[1].Tags, []string{"work", "focus"}) {
		t.Errorf("tags = %v, want [work focus]", all[1].Tags)
	}

	q := "river"
	filtered, err := s.GetJournalEntries(ctx, store.EntryFilter{Query: &q})
	if err != nil {
		t.Fatalf("GetJournalEntries(query): %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "e2" {
		t.Errorf("query filter returned %+v, want only e2", filtered)
	}

	mood := "calm"
	byMood, err := s.GetJournalEntries(ctx, store.EntryFilter{Mood: &mood})
	if err != nil {
		t.Fatalf("GetJournalEntries(mood): %v", err)
	}
	if len(byMood) != 1 || byMood[0].ID != "e1" {
		t.Errorf("mood filter returned %+v, want only e1", byMood)
	}
}

func TestGratitudeAndHighlightRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, time.March, 15, 21, 0, 0, 0, time.UTC)

	g := model.GratitudeEntry{
		ID:        "g1",
		Items:     []string{"coffee", "sunshine", "a good book"},
		Timestamp: ts,
	}
	if err := s.UpsertGratitudeEntry(ctx, g); err != nil {
		t.Fatalf("UpsertGratitudeEntry: %v", err)
	}

	h := model.HighlightEntry{
		ID:        "h1",
		Highlight: "Shipped the release",
		Reason:    "Months of work paying off",
		Mood:      "proud",
		Timestamp: ts,
	}
	if err := s.UpsertHighlightEntry(ctx, h); err != nil {
		t.Fatalf("UpsertHighlightEntry: %v", err)
	}

	gratitude, err := s.GetGratitudeEntries(ctx, store.EntryFilter{})
	if err != nil {
		t.Fatalf("GetGratitudeEntries: %v", err)
	}
	if len(gratitude) != 1 || !reflect.DeepEqual(gratitude[0].Items, g.Items) {
		t.Errorf("gratitude round trip = %+v", gratitude)
	}

	highlights, err := s.GetHighlightEntries(ctx, store.EntryFilter{})
	if err != nil {
		t.Fatalf("GetHighlightEntries: %v", err)
	}
	if len(highlights) != 1 || highlights[0].Highlight != h.Highlight || highlights[0].Reason != h.Reason {
		t.Errorf("highlight round trip = %+v", highlights)
	}
}

func TestPartnerLifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	// No partner configured yet.
	p, err := s.GetPartner(ctx)
	if err != nil {
		t.Fatalf("GetPartner: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil partner, got %+v", p)
	}

	want := model.AccountabilityPartner{Name: "Sam", PhoneNumber: "+1 (555) 123-4567", Enabled: true}
	if err := s.SavePartner(ctx, want); err != nil {
		t.Fatalf("SavePartner: %v", err)
	}

	p, err = s.GetPartner(ctx)
	if err != nil {
		t.Fatalf("GetPartner: %v", err)
	}
	if p == nil || p.Name != want.Name || p.PhoneNumber != want.PhoneNumber || !p.Enabled {
		t.Errorf("partner = %+v, want %+v", p, want)
	}

	// Saving again overwrites the single row.
	want.Enabled = false
	if err := s.SavePartner(ctx, want); err != nil {
		t.Fatalf("SavePartner: %v", err)
	}
	p, _ = s.GetPartner(ctx)
	if p == nil || p.Enabled {
		t.Errorf("partner after update = %+v, want disabled", p)
	}

	if err := s.ClearPartner(ctx); err != nil {
		t.Fatalf("ClearPartner: %v", err)
	}
	p, _ = s.GetPartner(ctx)
	if p != nil {
		t.Errorf("partner after clear = %+v, want nil", p)
	}
}

func TestClearAll(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.UpsertHabit(ctx, model.Habit{ID: "a", Name: "Read", CreatedAt: now}); err != nil {
		t.Fatalf("UpsertHabit: %v", err)
	}
	if err := s.UpsertJournalEntry(ctx, model.JournalEntry{ID: "e1", Content: "note", Timestamp: now}); err != nil {
		t.Fatalf("UpsertJournalEntry: %v", err)
	}
	if err := s.SavePartner(ctx, model.AccountabilityPartner{Name: "Sam", PhoneNumber: "15551234567"}); err != nil {
		t.Fatalf("SavePartner: %v", err)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	habits, _ := s.GetHabits(ctx)
	entries, _ := s.GetJournalEntries(ctx, store.EntryFilter{})
	p, _ := s.GetPartner(ctx)
	if len(habits) != 0 || len(entries) != 0 || p != nil {
		t.Errorf("data survived ClearAll: habits=%d entries=%d partner=%v", len(habits), len(entries), p)
	}
}
