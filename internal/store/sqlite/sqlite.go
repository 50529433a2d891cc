package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codepair/codepair-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    TEXT NOT NULL,
	language   TEXT NOT NULL,
	version    TEXT NOT NULL,
	output     TEXT NOT NULL,
	ok         BOOLEAN NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_executions_room ON executions(room_id, created_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveExecution appends one audit row.
func (s *SQLiteStore) SaveExecution(ctx context.Context, exec store.Execution) error {
	query := `
		INSERT INTO executions (room_id, language, version, output, ok)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, exec.RoomID, exec.Language, exec.Version, exec.Output, exec.OK); err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// RecentExecutions returns up to limit rows for a room, newest first.
func (s *SQLiteStore) RecentExecutions(ctx context.Context, roomID string, limit int) ([]store.Execution, error) {
	query := `
		SELECT id, room_id, language, version, output, ok, created_at
		FROM executions
		WHERE room_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var execs []store.Execution
	for rows.Next() {
		var e store.Execution
		if err := rows.Scan(&e.ID, &e.RoomID, &e.Language, &e.Version, &e.Output, &e.OK, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		execs = append(execs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return execs, nil
}
