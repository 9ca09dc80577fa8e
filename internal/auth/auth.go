// Package auth provides authentication for the boardmates control plane.
// It supports static tokens for service-to-service access and signed JWTs
// for interactive sessions.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/users"
)

// Identity represents an authenticated caller.
type Identity struct {
	// UserID is the unique identifier of the authenticated user.
	UserID string `json:"user_id"`

	// Email is the email address of the authenticated user.
	Email string `json:"email"`

	// Name is the display name of the authenticated user.
	Name string `json:"name"`

	// Role is the workspace role carried by this identity.
	Role users.Role `json:"role"`

	// ExpiresAt is when the authentication expires (for token-based auth).
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IsExpired checks if the identity's authentication has expired.
func (i *Identity) IsExpired() bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(i.ExpiresAt)
}

// HasRole checks if the identity carries the given role.
func (i *Identity) HasRole(role users.Role) bool {
	return i.Role == role
}

// Authenticator validates authentication tokens and returns caller identity.
type Authenticator interface {
	// ValidateToken validates a token and returns the authenticated identity.
	// Returns an error if the token is invalid or expired.
	ValidateToken(ctx context.Context, token string) (*Identity, error)
}

// StaticTokenAuthenticator implements Authenticator using static tokens from
// configuration. Intended for service accounts and local development.
type StaticTokenAuthenticator struct {
	mu     sync.RWMutex
	tokens map[string]*Identity
}

// NewStaticTokenAuthenticator creates a new static token authenticator.
func NewStaticTokenAuthenticator() *StaticTokenAuthenticator {
	return &StaticTokenAuthenticator{
		tokens: make(map[string]*Identity),
	}
}

// RegisterToken adds a token-to-identity mapping.
func (a *StaticTokenAuthenticator) RegisterToken(token string, identity *Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens[token] = identity
}

// ValidateToken validates a static token.
func (a *StaticTokenAuthenticator) ValidateToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, errors.NewAuthFailed("token required")
	}

	a.mu.RLock()
	identity, ok := a.tokens[token]
	a.mu.RUnlock()

	if !ok {
		return nil, errors.NewAuthFailed("invalid token")
	}

	if identity.IsExpired() {
		return nil, errors.NewAuthExpired()
	}

	return identity, nil
}

// ChainAuthenticator implements Authenticator by trying each configured
// authenticator in order. The first successful validation wins; when all
// fail, the last failure is returned.
type ChainAuthenticator struct {
	authenticators []Authenticator
}

// NewChainAuthenticator creates an authenticator chain.
func NewChainAuthenticator(authenticators ...Authenticator) *ChainAuthenticator {
	return &ChainAuthenticator{authenticators: authenticators}
}

// ValidateToken tries the token against each authenticator in order.
func (a *ChainAuthenticator) ValidateToken(ctx context.Context, token string) (*Identity, error) {
	var lastErr error
	for _, authn := range a.authenticators {
		identity, err := authn.ValidateToken(ctx, token)
		if err == nil {
			return identity, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.NewAuthFailed("no authenticators configured")
	}
	return nil, lastErr
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityContextKey contextKey = "boardmates_identity"

// ContextWithIdentity returns a new context with the identity attached.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext extracts the identity from the context.
// Returns nil if no identity is attached.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey).(*Identity)
	return identity
}
