// Package store defines the execution-history audit log. It is a
// diagnostic sink only: room and document state is never persisted, and
// nothing in it is ever replayed to clients.
package store

import (
	"context"
	"time"
)

// Execution is one audit row for a code execution request.
type Execution struct {
	ID        int64
	RoomID    string
	Language  string
	Version   string
	Output    string
	OK        bool
	CreatedAt time.Time
}

// Store records execution outcomes and serves them back for diagnostics.
type Store interface {
	// SaveExecution appends one audit row.
	SaveExecution(ctx context.Context, exec Execution) error

	// RecentExecutions returns up to limit rows for a room, newest first.
	RecentExecutions(ctx context.Context, roomID string, limit int) ([]Execution, error)

	// Close releases the underlying resources.
	Close() error
}
