package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "nodes: knowledge items with last layout position",
		SQL: `
CREATE TABLE nodes (
    id              TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    tags            TEXT NOT NULL DEFAULT '[]',
    kind            TEXT NOT NULL DEFAULT 'note' CHECK (kind IN ('note', 'commitment')),

    -- Layout, valid only when placed = 1
    x               REAL NOT NULL DEFAULT 0,
    y               REAL NOT NULL DEFAULT 0,
    placed          INTEGER NOT NULL DEFAULT 0,

    last_touched_at INTEGER,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);

CREATE INDEX idx_nodes_created ON nodes(created_at);
`,
	},
	{
		Version:     2,
		Description: "clusters: externally supplied thematic groupings",
		SQL: `
CREATE TABLE clusters (
    id         TEXT PRIMARY KEY,
    theme_name TEXT NOT NULL DEFAULT '',
    position   INTEGER NOT NULL
);

CREATE TABLE cluster_members (
    cluster_id TEXT NOT NULL,
    node_id    TEXT NOT NULL,
    position   INTEGER NOT NULL,
    PRIMARY KEY (cluster_id, node_id),
    FOREIGN KEY (cluster_id) REFERENCES clusters(id) ON DELETE CASCADE
);

CREATE INDEX idx_members_node ON cluster_members(node_id);
`,
	},
	{
		Version:     3,
		Description: "review_cards: SM-2 schedule per node",
		SQL: `
CREATE TABLE review_cards (
    node_id     TEXT PRIMARY KEY,
    interval    INTEGER NOT NULL DEFAULT 0,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    repetitions INTEGER NOT NULL DEFAULT 0,
    due_at      INTEGER,
    reviewed_at INTEGER,
    FOREIGN KEY (node_id) REFERENCES nodes(id) ON DELETE CASCADE
);

CREATE INDEX idx_cards_due ON review_cards(due_at);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
