// Package session tracks the lifecycle of recommendation sessions.
// A session is opened per incoming request, carries the request payload
// and skill routing information, and is always closed exactly once,
// whether the request succeeds or fails.
package session

import (
	"time"
)

// Status describes the lifecycle phase of a session.
type Status string

const (
	// StatusActive marks a session whose request is still being served.
	StatusActive Status = "active"
	// StatusClosed marks a session whose request has finished.
	StatusClosed Status = "closed"
)

// Session is the persistent record of one request lifecycle.
type Session struct {
	// ID is the unique session identifier.
	ID string `json:"id"`
	// SkillID is the skill the request was routed to.
	SkillID string `json:"skillId"`
	// UserID identifies the caller (optional).
	UserID string `json:"userId,omitempty"`
	// Request is the payload the session was opened with.
	Request map[string]any `json:"request,omitempty"`
	// Status is the current lifecycle phase.
	Status Status `json:"status"`
	// CreatedAt is when the session was opened.
	CreatedAt time.Time `json:"createdAt"`
	// ClosedAt is when the session ended (zero while active).
	ClosedAt time.Time `json:"closedAt,omitempty"`
	// RequestCount is the number of requests served within the session.
	RequestCount int `json:"requestCount"`
}

// Duration returns how long the session has been (or was) open.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.Status == StatusClosed {
		return s.ClosedAt.Sub(s.CreatedAt)
	}
	return now.Sub(s.CreatedAt)
}

// Stats summarizes manager activity since startup.
type Stats struct {
	// Active is the number of currently open sessions.
	Active int `json:"active"`
	// TotalCreated counts every session ever opened.
	TotalCreated int `json:"totalCreated"`
	// TotalClosed counts every session ever closed.
	TotalClosed int `json:"totalClosed"`
	// BySkill counts created sessions per skill ID.
	BySkill map[string]int `json:"bySkill"`
}
