package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn    *sql.DB
	dataDir string // root directory for media files and snapshots
}

// New creates a new DB, opening (or creating) the SQLite file at dbPath.
// dataDir is the root directory where uploaded media is stored.
func New(dbPath, dataDir string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer — limit to single connection to prevent SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, dataDir: dataDir}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DataDir returns the root data directory.
func (db *DB) DataDir() string {
	return db.dataDir
}

// MediaDir returns the media directory for a project, creating it if needed.
func (db *DB) MediaDir(project string) (string, error) {
	dir := filepath.Join(db.dataDir, "media", project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}
	return dir, nil
}

// SnapshotDir returns the directory for layout history snapshots.
func (db *DB) SnapshotDir(project string) (string, error) {
	dir := filepath.Join(db.dataDir, "snapshots", project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}
	return dir, nil
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS layouts (
			project TEXT PRIMARY KEY,
			format TEXT NOT NULL DEFAULT 'A4',
			orientation TEXT NOT NULL DEFAULT 'portrait',
			columns INTEGER NOT NULL DEFAULT 3,
			baseline INTEGER NOT NULL DEFAULT 24,
			gutter INTEGER NOT NULL DEFAULT 32,
			snap INTEGER NOT NULL DEFAULT 1,
			zoom REAL NOT NULL DEFAULT 1.0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			id TEXT NOT NULL,
			project TEXT NOT NULL REFERENCES layouts(project),
			type TEXT NOT NULL DEFAULT 'text',
			content TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			x INTEGER NOT NULL DEFAULT 0,
			y INTEGER NOT NULL DEFAULT 0,
			width INTEGER NOT NULL DEFAULT 240,
			height INTEGER NOT NULL DEFAULT 120,
			background_color TEXT NOT NULL DEFAULT '#ffffff',
			text_color TEXT NOT NULL DEFAULT '#1f2a44',
			border_radius INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (project, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_project ON blocks(project)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// ALTER TABLE fails if column already exists — safe to ignore
			if strings.Contains(m, "ALTER TABLE") && strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}

	return nil
}
