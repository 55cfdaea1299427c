package security

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
)

// Auth errors.
var (
	// ErrMissingToken is returned when no token accompanies the request.
	ErrMissingToken = errors.New("missing authentication token")
	// ErrInvalidToken is returned when the token matches no principal.
	ErrInvalidToken = errors.New("invalid authentication token")
)

// Principal represents an authenticated caller.
type Principal struct {
	ID       string
	Name     string
	Metadata map[string]string
}

// Authenticator verifies request tokens.
type Authenticator interface {
	// Authenticate resolves a token to its principal.
	// Returns ErrMissingToken or ErrInvalidToken on failure.
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// StaticTokenAuthenticator authenticates against a fixed token set.
type StaticTokenAuthenticator struct {
	tokens map[string]*Principal
	mu     sync.RWMutex
}

// NewStaticTokenAuthenticator creates an empty token authenticator.
func NewStaticTokenAuthenticator() *StaticTokenAuthenticator {
	return &StaticTokenAuthenticator{
		tokens: make(map[string]*Principal),
	}
}

// AddToken registers a token with its principal.
func (a *StaticTokenAuthenticator) AddToken(token string, principal *Principal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens[token] = principal
}

// Authenticate verifies a token and returns the associated principal.
func (a *StaticTokenAuthenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	// Constant-time comparison to prevent timing attacks.
	for candidate, principal := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			return principal, nil
		}
	}

	return nil, ErrInvalidToken
}

// AllowAllAuthenticator accepts every token, including the empty one.
// It exists for development setups without credential distribution.
type AllowAllAuthenticator struct{}

// Authenticate returns an anonymous principal for any token.
func (AllowAllAuthenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	return &Principal{ID: "anonymous", Name: "anonymous"}, nil
}
