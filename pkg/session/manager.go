package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Listener receives session lifecycle notifications. Implementations
// must not block: they are called synchronously on the request path.
type Listener interface {
	// OnSessionStarted fires after a session has been opened and persisted.
	OnSessionStarted(sess *Session)
	// OnSessionEnded fires after a session has been closed, with its
	// total open duration.
	OnSessionEnded(sess *Session, duration time.Duration)
}

// Manager owns session lifecycle. Every session it opens is closed
// exactly once; closing an unknown or already-closed session is an
// error. Manager is safe for concurrent use.
type Manager struct {
	backend   StorageBackend
	listeners []Listener
	now       func() time.Time

	mu           sync.RWMutex
	active       map[string]*Session
	totalCreated int
	totalClosed  int
	bySkill      map[string]int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithListener registers a lifecycle listener.
func WithListener(l Listener) ManagerOption {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

// WithManagerClock overrides the manager clock. Tests use this to pin
// session timestamps and durations.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager over the given storage backend.
func NewManager(backend StorageBackend, opts ...ManagerOption) *Manager {
	if backend == nil {
		panic("session manager backend cannot be nil")
	}

	m := &Manager{
		backend: backend,
		now:     time.Now,
		active:  make(map[string]*Session),
		bySkill: make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a new session for a skill request and persists it.
func (m *Manager) Create(ctx context.Context, skillID, userID string, request map[string]any) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		SkillID:   skillID,
		UserID:    userID,
		Request:   request,
		Status:    StatusActive,
		CreatedAt: m.now().UTC(),
	}

	if err := m.backend.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	stored := *sess
	m.active[sess.ID] = &stored
	m.totalCreated++
	m.bySkill[skillID]++
	m.mu.Unlock()

	for _, l := range m.listeners {
		l.OnSessionStarted(sess)
	}
	return sess, nil
}

// Get retrieves a session by ID, checking active sessions before the
// backend. Returns ErrSessionNotFound for unknown IDs.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	if sess, ok := m.active[sessionID]; ok {
		loaded := *sess
		m.mu.RUnlock()
		return &loaded, nil
	}
	m.mu.RUnlock()

	return m.backend.LoadSession(ctx, sessionID)
}

// RecordRequest increments the request counter of an active session.
func (m *Manager) RecordRequest(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	sess, ok := m.active[sessionID]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	sess.RequestCount++
	updated := *sess
	m.mu.Unlock()

	return m.backend.SaveSession(ctx, &updated)
}

// End closes an active session and returns how long it was open.
// Returns ErrSessionNotFound for unknown IDs and ErrSessionClosed when
// the session was already closed.
func (m *Manager) End(ctx context.Context, sessionID string) (time.Duration, error) {
	m.mu.Lock()
	sess, ok := m.active[sessionID]
	if !ok {
		m.mu.Unlock()
		// Distinguish closed-and-persisted from never-existed.
		stored, err := m.backend.LoadSession(ctx, sessionID)
		if err == nil && stored.Status == StatusClosed {
			return 0, ErrSessionClosed
		}
		return 0, ErrSessionNotFound
	}

	delete(m.active, sessionID)
	m.totalClosed++

	sess.Status = StatusClosed
	sess.ClosedAt = m.now().UTC()
	duration := sess.ClosedAt.Sub(sess.CreatedAt)
	closed := *sess
	m.mu.Unlock()

	if err := m.backend.SaveSession(ctx, &closed); err != nil {
		return duration, fmt.Errorf("save closed session: %w", err)
	}

	for _, l := range m.listeners {
		l.OnSessionEnded(&closed, duration)
	}
	return duration, nil
}

// ActiveCount returns the number of currently open sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Stats returns a snapshot of manager activity since startup.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bySkill := make(map[string]int, len(m.bySkill))
	for k, v := range m.bySkill {
		bySkill[k] = v
	}
	return Stats{
		Active:       len(m.active),
		TotalCreated: m.totalCreated,
		TotalClosed:  m.totalClosed,
		BySkill:      bySkill,
	}
}

// Close ends all active sessions and closes the backend.
func (m *Manager) Close() error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	ctx := context.Background()
	for _, id := range ids {
		_, _ = m.End(ctx, id)
	}
	return m.backend.Close()
}
