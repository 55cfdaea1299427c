package session

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	// ErrSessionNotFound is returned when a session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned when closing an already-closed session.
	ErrSessionClosed = errors.New("session already closed")
	// ErrStorageClosed is returned when operating on a closed storage backend.
	ErrStorageClosed = errors.New("storage backend is closed")
)

// StorageBackend abstracts session persistence.
// Implementations must be safe for concurrent use.
type StorageBackend interface {
	// SaveSession creates or updates a session record.
	SaveSession(ctx context.Context, sess *Session) error

	// LoadSession retrieves a session record by ID.
	// Returns ErrSessionNotFound if the session doesn't exist.
	LoadSession(ctx context.Context, sessionID string) (*Session, error)

	// DeleteSession removes a session record.
	DeleteSession(ctx context.Context, sessionID string) error

	// ListSessions returns sessions for a skill matching the filter options.
	// An empty skillID matches all skills.
	ListSessions(ctx context.Context, skillID string, opts ListOptions) ([]*Session, error)

	// Close releases any resources held by the backend.
	Close() error
}

// ListOptions provides filtering for session listing.
type ListOptions struct {
	// UserID filters sessions by user.
	UserID string
	// Status filters by lifecycle phase ("" matches all).
	Status Status
	// Limit caps the number of results.
	Limit int
	// Offset skips the first N results.
	Offset int
}
