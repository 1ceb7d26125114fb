package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/daybook/internal/model"
)

// Snapshot is the full JSON export of the application's data.
type Snapshot struct {
	ExportDate time.Time              `json:"exportDate"`
	Habits     []model.Habit          `json:"habits"`
	Journal    []model.JournalEntry   `json:"journalEntries"`
	Gratitude  []model.GratitudeEntry `json:"gratitudeEntries"`
	Highlights []model.HighlightEntry `json:"highlightEntries"`
	Analytics  Analytics              `json:"analytics"`
}

// NewSnapshot assembles a snapshot with analytics computed as of now.
func NewSnapshot(
	habits []model.Habit,
	journal []model.JournalEntry,
	gratitude []model.GratitudeEntry,
	highlights []model.HighlightEntry,
	now time.Time,
) Snapshot {
	return Snapshot{
		ExportDate: now,
		Habits:     habits,
		Journal:    journal,
		Gratitude:  gratitude,
		Highlights: highlights,
		Analytics:  BuildAnalytics(habits, journal, gratitude, highlights, now),
	}
}

// WriteJSON writes the snapshot to dir as an indented JSON file and
// returns the file path. The directory is created if missing.
func (s Snapshot) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	name := fmt.Sprintf("daybook_export_%s.json", s.ExportDate.Format("2006-01-02"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return path, nil
}
