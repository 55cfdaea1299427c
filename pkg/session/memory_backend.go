package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend implements StorageBackend with an in-process map.
// It is the default backend for single-node deployments and tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewMemoryBackend creates an empty in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]*Session),
	}
}

// SaveSession creates or updates a session record.
func (b *MemoryBackend) SaveSession(ctx context.Context, sess *Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrStorageClosed
	}

	// Store a copy so callers can't mutate the record behind the lock.
	stored := *sess
	b.sessions[sess.ID] = &stored
	return nil
}

// LoadSession retrieves a session record by ID.
func (b *MemoryBackend) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrStorageClosed
	}

	sess, ok := b.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	loaded := *sess
	return &loaded, nil
}

// DeleteSession removes a session record.
func (b *MemoryBackend) DeleteSession(ctx context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrStorageClosed
	}

	delete(b.sessions, sessionID)
	return nil
}

// ListSessions returns sessions for a skill matching the filter options.
func (b *MemoryBackend) ListSessions(ctx context.Context, skillID string, opts ListOptions) ([]*Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrStorageClosed
	}

	matched := make([]*Session, 0)
	for _, sess := range b.sessions {
		if skillID != "" && sess.SkillID != skillID {
			continue
		}
		if opts.UserID != "" && sess.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && sess.Status != opts.Status {
			continue
		}
		loaded := *sess
		matched = append(matched, &loaded)
	}

	// Sort by ID for deterministic pagination.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start := opts.Offset
	if start >= len(matched) {
		return []*Session{}, nil
	}
	end := len(matched)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return matched[start:end], nil
}

// Close marks the backend closed. Subsequent operations fail with
// ErrStorageClosed.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.sessions = nil
	return nil
}
