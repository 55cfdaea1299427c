package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingListener struct {
	mu        sync.Mutex
	started   []string
	ended     []string
	durations []time.Duration
}

func (l *recordingListener) OnSessionStarted(sess *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, sess.ID)
}

func (l *recordingListener) OnSessionEnded(sess *Session, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ended = append(l.ended, sess.ID)
	l.durations = append(l.durations, duration)
}

// steppingClock advances by one tick per reading.
func steppingClock(start time.Time, tick time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := current
		current = current.Add(tick)
		return t
	}
}

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(NewMemoryBackend())
	defer m.Close()

	ctx := context.Background()
	sess, err := m.Create(ctx, "travel_destination_recommendation", "user-1", map[string]any{
		"query": "자연 여행",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected non-empty session ID")
	}
	if sess.Status != StatusActive {
		t.Errorf("status = %s, want %s", sess.Status, StatusActive)
	}

	got, err := m.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SkillID != "travel_destination_recommendation" {
		t.Errorf("skill = %s", got.SkillID)
	}
	if got.Request["query"] != "자연 여행" {
		t.Errorf("request payload lost: %v", got.Request)
	}
}

func TestManager_EndReturnsDuration(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	m := NewManager(NewMemoryBackend(),
		WithManagerClock(steppingClock(start, time.Second)))
	defer m.Close()

	ctx := context.Background()
	sess, err := m.Create(ctx, "agent_status_inquiry", "", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	duration, err := m.End(ctx, sess.ID)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if duration != time.Second {
		t.Errorf("duration = %v, want 1s", duration)
	}

	// The closed record survives in the backend.
	got, err := m.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get after End failed: %v", err)
	}
	if got.Status != StatusClosed {
		t.Errorf("status = %s, want %s", got.Status, StatusClosed)
	}
	if m.ActiveCount() != 0 {
		t.Errorf("active = %d, want 0", m.ActiveCount())
	}
}

func TestManager_EndUnknownSession(t *testing.T) {
	m := NewManager(NewMemoryBackend())
	defer m.Close()

	_, err := m.End(context.Background(), "no-such-session")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_EndTwice(t *testing.T) {
	m := NewManager(NewMemoryBackend())
	defer m.Close()

	ctx := context.Background()
	sess, err := m.Create(ctx, "agent_status_inquiry", "", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.End(ctx, sess.ID); err != nil {
		t.Fatalf("first End failed: %v", err)
	}

	_, err = m.End(ctx, sess.ID)
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}
}

func TestManager_Listeners(t *testing.T) {
	l := &recordingListener{}
	m := NewManager(NewMemoryBackend(), WithListener(l))
	defer m.Close()

	ctx := context.Background()
	sess, err := m.Create(ctx, "travel_destination_recommendation", "", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.End(ctx, sess.ID); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.started) != 1 || l.started[0] != sess.ID {
		t.Errorf("started = %v", l.started)
	}
	if len(l.ended) != 1 || l.ended[0] != sess.ID {
		t.Errorf("ended = %v", l.ended)
	}
}

func TestManager_RecordRequest(t *testing.T) {
	m := NewManager(NewMemoryBackend())
	defer m.Close()

	ctx := context.Background()
	sess, err := m.Create(ctx, "agent_status_inquiry", "", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := m.RecordRequest(ctx, sess.ID); err != nil {
			t.Fatalf("RecordRequest failed: %v", err)
		}
	}

	got, err := m.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.RequestCount != 3 {
		t.Errorf("request count = %d, want 3", got.RequestCount)
	}

	if err := m.RecordRequest(ctx, "no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_Stats(t *testing.T) {
	m := NewManager(NewMemoryBackend())
	defer m.Close()

	ctx := context.Background()
	first, _ := m.Create(ctx, "travel_destination_recommendation", "", nil)
	if _, err := m.Create(ctx, "travel_destination_recommendation", "", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.Create(ctx, "agent_status_inquiry", "", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.End(ctx, first.ID); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	stats := m.Stats()
	if stats.Active != 2 {
		t.Errorf("active = %d, want 2", stats.Active)
	}
	if stats.TotalCreated != 3 {
		t.Errorf("created = %d, want 3", stats.TotalCreated)
	}
	if stats.TotalClosed != 1 {
		t.Errorf("closed = %d, want 1", stats.TotalClosed)
	}
	if stats.BySkill["travel_destination_recommendation"] != 2 {
		t.Errorf("by skill = %v", stats.BySkill)
	}
}

func TestManager_ConcurrentLifecycle(t *testing.T) {
	m := NewManager(NewMemoryBackend())
	defer m.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := m.Create(ctx, "travel_destination_recommendation", "", nil)
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			if _, err := m.End(ctx, sess.ID); err != nil {
				t.Errorf("End failed: %v", err)
			}
		}()
	}
	wg.Wait()

	stats := m.Stats()
	if stats.Active != 0 {
		t.Errorf("active = %d, want 0", stats.Active)
	}
	if stats.TotalCreated != 20 || stats.TotalClosed != 20 {
		t.Errorf("created/closed = %d/%d, want 20/20", stats.TotalCreated, stats.TotalClosed)
	}
}

func TestManager_CloseEndsActiveSessions(t *testing.T) {
	l := &recordingListener{}
	m := NewManager(NewMemoryBackend(), WithListener(l))

	ctx := context.Background()
	if _, err := m.Create(ctx, "agent_status_inquiry", "", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.Create(ctx, "agent_status_inquiry", "", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.ended) != 2 {
		t.Errorf("ended = %d sessions, want 2", len(l.ended))
	}
}

func TestMemoryBackend_ListFilters(t *testing.T) {
	b := NewMemoryBackend()
	defer b.Close()

	ctx := context.Background()
	records := []*Session{
		{ID: "a", SkillID: "travel_destination_recommendation", UserID: "u1", Status: StatusActive},
		{ID: "b", SkillID: "travel_destination_recommendation", UserID: "u2", Status: StatusClosed},
		{ID: "c", SkillID: "agent_status_inquiry", UserID: "u1", Status: StatusActive},
	}
	for _, r := range records {
		if err := b.SaveSession(ctx, r); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}
	}

	got, err := b.ListSessions(ctx, "travel_destination_recommendation", ListOptions{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("by skill: %d sessions, want 2", len(got))
	}

	got, err = b.ListSessions(ctx, "", ListOptions{Status: StatusActive})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("by status: %d sessions, want 2", len(got))
	}

	got, err = b.ListSessions(ctx, "", ListOptions{UserID: "u1", Limit: 1})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("by user with limit: %v", got)
	}
}
