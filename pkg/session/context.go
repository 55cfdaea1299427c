package session

import (
	"context"
)

// sessionKey is the context key for storing sessions.
type sessionKey struct{}

// FromContext retrieves a session from the context.
// Returns the session and true if found, or nil and false if not present.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok
}

// NewContext adds a session to the context.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}
