package session

import (
	"context"
	"testing"
)

func TestContext_RoundTrip(t *testing.T) {
	sess := &Session{ID: "sess-ctx", SkillID: "skill"}

	ctx := NewContext(context.Background(), sess)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected session on context")
	}
	if got.ID != sess.ID {
		t.Errorf("ID = %q, want %q", got.ID, sess.ID)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if sess, ok := FromContext(context.Background()); ok || sess != nil {
		t.Errorf("FromContext on empty context = %v, %v", sess, ok)
	}
}
