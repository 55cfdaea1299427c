// Package security provides request authentication and admission
// control for the recommendation dispatcher.
package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter caps request throughput globally and per caller.
// A zero or negative rate disables limiting entirely.
type RateLimiter struct {
	globalLimiter  *rate.Limiter
	callerLimiters map[string]*rate.Limiter
	mu             sync.RWMutex

	requestsPerSecond float64
	burst             int
}

// NewRateLimiter creates a rate limiter allowing requestsPerSecond
// sustained with the given burst, enforced both globally and per caller.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		callerLimiters:    make(map[string]*rate.Limiter),
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
	}
	if requestsPerSecond > 0 {
		rl.globalLimiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return rl
}

// Allow reports whether a request from the caller may proceed now.
func (rl *RateLimiter) Allow(callerID string) bool {
	if rl.globalLimiter == nil {
		return true
	}

	if !rl.globalLimiter.Allow() {
		return false
	}
	return rl.callerLimiter(callerID).Allow()
}

// Wait blocks until a request from the caller may proceed or the
// context is done.
func (rl *RateLimiter) Wait(ctx context.Context, callerID string) error {
	if rl.globalLimiter == nil {
		return nil
	}

	if err := rl.globalLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("global rate limit: %w", err)
	}
	if err := rl.callerLimiter(callerID).Wait(ctx); err != nil {
		return fmt.Errorf("caller rate limit: %w", err)
	}
	return nil
}

func (rl *RateLimiter) callerLimiter(callerID string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.callerLimiters[callerID]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.callerLimiters[callerID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(rl.requestsPerSecond), rl.burst)
	rl.callerLimiters[callerID] = limiter
	return limiter
}

// SkillTimeouts manages per-skill execution deadlines.
type SkillTimeouts struct {
	defaultTimeout time.Duration
	skillTimeouts  map[string]time.Duration
	mu             sync.RWMutex
}

// NewSkillTimeouts creates a timeout registry with a default deadline.
func NewSkillTimeouts(defaultTimeout time.Duration) *SkillTimeouts {
	return &SkillTimeouts{
		defaultTimeout: defaultTimeout,
		skillTimeouts:  make(map[string]time.Duration),
	}
}

// Set assigns a specific timeout to a skill.
func (st *SkillTimeouts) Set(skillID string, timeout time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.skillTimeouts[skillID] = timeout
}

// Get returns the timeout for a skill, falling back to the default.
func (st *SkillTimeouts) Get(skillID string) time.Duration {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if timeout, exists := st.skillTimeouts[skillID]; exists {
		return timeout
	}
	return st.defaultTimeout
}

// WithTimeout derives a context carrying the skill's deadline.
// A zero timeout yields the parent context unchanged.
func (st *SkillTimeouts) WithTimeout(ctx context.Context, skillID string) (context.Context, context.CancelFunc) {
	timeout := st.Get(skillID)
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
