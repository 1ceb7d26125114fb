package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS habits (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	completed           INTEGER NOT NULL DEFAULT 0,
	streak              INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL,
	completions_by_date TEXT NOT NULL DEFAULT '{}',
	notify              INTEGER NOT NULL DEFAULT 0,
	notify_time         TEXT NOT NULL DEFAULT '',
	notification_id     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS journal_entries (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL DEFAULT '',
	content   TEXT NOT NULL,
	mood      TEXT NOT NULL DEFAULT '',
	tags      TEXT NOT NULL DEFAULT '[]',
	timestamp DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS gratitude_entries (
	id        TEXT PRIMARY KEY,
	items     TEXT NOT NULL DEFAULT '[]',
	timestamp DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS highlight_entries (
	id        TEXT PRIMARY KEY,
	highlight TEXT NOT NULL,
	reason    TEXT NOT NULL DEFAULT '',
	mood      TEXT NOT NULL DEFAULT '',
	timestamp DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS partner (
	id           INTEGER PRIMARY KEY CHECK(id = 1),
	name         TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	enabled      INTEGER NOT NULL DEFAULT 0,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_timestamp ON journal_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_gratitude_entries_timestamp ON gratitude_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_highlight_entries_timestamp ON highlight_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_habits_created_at ON habits(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
