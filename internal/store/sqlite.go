package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/daybook/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// GetHabits retrieves all habits ordered by creation time.
func (s *SQLiteStore) GetHabits(ctx context.Context) ([]model.Habit, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM habits ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}

	return habits, rows.Err()
}

// UpsertHabit inserts or replaces a single habit.
func (s *SQLiteStore) UpsertHabit(ctx context.Context, h model.Habit) error {
	completions, err := json.Marshal(completionsOrEmpty(h.CompletionsByDate))
	if err != nil {
		return fmt.Errorf("marshaling completions for habit %s: %w", h.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO habits (
			id, name, completed, streak, created_at,
			completions_by_date, notify, notify_time, notification_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, boolToInt(h.Completed), h.Streak, h.CreatedAt.UTC(),
		string(completions), boolToInt(h.Notify), h.NotifyTime, h.NotificationID,
	)
	if err != nil {
		return fmt.Errorf("upserting habit %s: %w", h.ID, err)
	}

	return nil
}

// SaveHabits replaces the entire habit set in a single transaction. Habits
// absent from the slice are removed, so the stored set always mirrors the
// in-memory list the caller owns.
func (s *SQLiteStore) SaveHabits(ctx context.Context, habits []model.Habit) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM habits"); err != nil {
		return fmt.Errorf("clearing habits: %w", err)
	}

	const query = `
		INSERT INTO habits (
			id, name, completed, streak, created_at,
			completions_by_date, notify, notify_time, notification_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing habit insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range habits {
		completions, err := json.Marshal(completionsOrEmpty(h.CompletionsByDate))
		if err != nil {
			return fmt.Errorf("marshaling completions for habit %s: %w", h.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			h.ID, h.Name, boolToInt(h.Completed), h.Streak, h.CreatedAt.UTC(),
			string(completions), boolToInt(h.Notify), h.NotifyTime, h.NotificationID,
		)
		if err != nil {
			return fmt.Errorf("inserting habit %s: %w", h.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteHabit removes a habit by id.
func (s *SQLiteStore) DeleteHabit(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting habit %s: %w", id, err)
	}
	return nil
}

// UpsertJournalEntry inserts or replaces a journal entry.
func (s *SQLiteStore) UpsertJournalEntry(ctx context.Context, e model.JournalEntry) error {
	tags, err := json.Marshal(stringsOrEmpty(e.Tags))
	if err != nil {
		return fmt.Errorf("marshaling tags for entry %s: %w", e.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO journal_entries (id, title, content, mood, tags, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Content, e.Mood, string(tags), e.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting journal entry %s: %w", e.ID, err)
	}

	return nil
}

// GetJournalEntries retrieves journal entries matching the filter, newest
// first.
func (s *SQLiteStore) GetJournalEntries(ctx context.Context, filter EntryFilter) ([]model.JournalEntry, error) {
	query, args := buildEntryQuery(
		"SELECT * FROM journal_entries",
		"(title LIKE ? OR content LIKE ?)",
		filter,
	)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal entries: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		var (
			e    model.JournalEntry
			tags string
			ts   time.Time
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Content, &e.Mood, &tags, &ts); err != nil {
			return nil, fmt.Errorf("scanning journal entry row: %w", err)
		}
		e.Timestamp = ts
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
				return nil, fmt.Errorf("unmarshaling tags: %w", err)
			}
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteJournalEntry removes a journal entry by id.
func (s *SQLiteStore) DeleteJournalEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM journal_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting journal entry %s: %w", id, err)
	}
	return nil
}

// UpsertGratitudeEntry inserts or replaces a gratitude entry.
func (s *SQLiteStore) UpsertGratitudeEntry(ctx context.Context, e model.GratitudeEntry) error {
	items, err := json.Marshal(stringsOrEmpty(e.Items))
	if err != nil {
		return fmt.Errorf("marshaling items for entry %s: %w", e.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO gratitude_entries (id, items, timestamp)
		VALUES (?, ?, ?)`,
		e.ID, string(items), e.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting gratitude entry %s: %w", e.ID, err)
	}

	return nil
}

// GetGratitudeEntries retrieves gratitude entries, newest first.
func (s *SQLiteStore) GetGratitudeEntries(ctx context.Context, filter EntryFilter) ([]model.GratitudeEntry, error) {
	query, args := buildEntryQuery(
		"SELECT * FROM gratitude_entries",
		"items LIKE ?",
		filter,
	)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying gratitude entries: %w", err)
	}
	defer rows.Close()

	var entries []model.GratitudeEntry
	for rows.Next() {
		var (
			e     model.GratitudeEntry
			items string
			ts    time.Time
		)
		if err := rows.Scan(&e.ID, &items, &ts); err != nil {
			return nil, fmt.Errorf("scanning gratitude entry row: %w", err)
		}
		e.Timestamp = ts
		if items != "" {
			if err := json.Unmarshal([]byte(items), &e.Items); err != nil {
				return nil, fmt.Errorf("unmarshaling items: %w", err)
			}
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteGratitudeEntry removes a gratitude entry by id.
func (s *SQLiteStore) DeleteGratitudeEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM gratitude_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting gratitude entry %s: %w", id, err)
	}
	return nil
}

// UpsertHighlightEntry inserts or replaces a highlight entry.
func (s *SQLiteStore) UpsertHighlightEntry(ctx context.Context, e model.HighlightEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO highlight_entries (id, highlight, reason, mood, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Highlight, e.Reason, e.Mood, e.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting highlight entry %s: %w", e.ID, err)
	}

	return nil
}

// GetHighlightEntries retrieves highlight entries, newest first.
func (s *SQLiteStore) GetHighlightEntries(ctx context.Context, filter EntryFilter) ([]model.HighlightEntry, error) {
	query, args := buildEntryQuery(
		"SELECT * FROM highlight_entries",
		"(highlight LIKE ? OR reason LIKE ?)",
		filter,
	)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying highlight entries: %w", err)
	}
	defer rows.Close()

	var entries []model.HighlightEntry
	for rows.Next() {
		var (
			e  model.HighlightEntry
			ts time.Time
		)
		if err := rows.Scan(&e.ID, &e.Highlight, &e.Reason, &e.Mood, &ts); err != nil {
			return nil, fmt.Errorf("scanning highlight entry row: %w", err)
		}
		e.Timestamp = ts
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteHighlightEntry removes a highlight entry by id.
func (s *SQLiteStore) DeleteHighlightEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM highlight_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting highlight entry %s: %w", id, err)
	}
	return nil
}

// SavePartner stores the single accountability partner row.
func (s *SQLiteStore) SavePartner(ctx context.Context, p model.AccountabilityPartner) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO partner (id, name, phone_number, enabled, updated_at)
		VALUES (1, ?, ?, ?, ?)`,
		p.Name, p.PhoneNumber, boolToInt(p.Enabled), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving accountability partner: %w", err)
	}
	return nil
}

// GetPartner retrieves the accountability partner, or nil when none is
// configured.
func (s *SQLiteStore) GetPartner(ctx context.Context) (*model.AccountabilityPartner, error) {
	var (
		p       model.AccountabilityPartner
		enabled int
		updated time.Time
		id      int
	)
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM partner WHERE id = 1")
	err := row.Scan(&id, &p.Name, &p.PhoneNumber, &enabled, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting accountability partner: %w", err)
	}
	p.Enabled = enabled != 0
	return &p, nil
}

// ClearPartner removes the accountability partner.
func (s *SQLiteStore) ClearPartner(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM partner WHERE id = 1")
	if err != nil {
		return fmt.Errorf("clearing accountability partner: %w", err)
	}
	return nil
}

// ClearAll wipes every table in a single transaction.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"habits", "journal_entries", "gratitude_entries", "highlight_entries", "partner",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return tx.Commit()
}

// buildEntryQuery assembles a filtered, paginated entry query ordered by
// timestamp descending. searchClause must contain one LIKE placeholder per
// occurrence of '?' for the query text.
func buildEntryQuery(base, searchClause string, filter EntryFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Query != nil && *filter.Query != "" {
		q := "%" + *filter.Query + "%"
		conditions = append(conditions, searchClause)
		for i := 0; i < strings.Count(searchClause, "?"); i++ {
			args = append(args, q)
		}
	}
	if filter.Mood != nil && *filter.Mood != "" {
		conditions = append(conditions, "mood = ?")
		args = append(args, *filter.Mood)
	}

	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}

// scanHabit scans a habit row from a sqlx.Rows result set.
func scanHabit(rows *sqlx.Rows) (model.Habit, error) {
	var (
		h              model.Habit
		completed      int
		notify         int
		createdAt      time.Time
		completionsRaw string
	)

	err := rows.Scan(
		&h.ID, &h.Name, &completed, &h.Streak, &createdAt,
		&completionsRaw, &notify, &h.NotifyTime, &h.NotificationID,
	)
	if err != nil {
		return model.Habit{}, fmt.Errorf("scanning habit row: %w", err)
	}

	h.Completed = completed != 0
	h.Notify = notify != 0
	h.CreatedAt = createdAt
	h.CompletionsByDate = map[string]bool{}
	if completionsRaw != "" {
		if err := json.Unmarshal([]byte(completionsRaw), &h.CompletionsByDate); err != nil {
			return model.Habit{}, fmt.Errorf("unmarshaling completions: %w", err)
		}
	}

	return h, nil
}

// completionsOrEmpty avoids persisting JSON null for nil maps.
func completionsOrEmpty(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return m
}

// stringsOrEmpty avoids persisting JSON null for nil slices.
func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
