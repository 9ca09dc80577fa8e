package auth

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/users"
)

// Claims is the JWT claims structure carried by boardmates session tokens.
// The user identifier travels in the registered Subject claim.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a new TokenIssuer. The secret must be non-empty and
// the ttl bounds the session lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.NewAuthFailed("jwt secret not configured")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: "boardmates",
		ttl:    ttl,
	}, nil
}

// Issue signs a session token for the given user. The returned expiry matches
// the token's exp claim.
func (ti *TokenIssuer) Issue(u *users.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ti.ttl)

	claims := &Claims{
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, errors.NewAuthFailed("failed to sign token")
	}
	return signed, expiresAt, nil
}

// JWTAuthenticator implements Authenticator by verifying HS256 session tokens.
type JWTAuthenticator struct {
	secret []byte
}

// NewJWTAuthenticator creates a new JWTAuthenticator sharing the issuer secret.
func NewJWTAuthenticator(secret string) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, errors.NewAuthFailed("jwt secret not configured")
	}
	return &JWTAuthenticator{secret: []byte(secret)}, nil
}

// ValidateToken parses and verifies a session token, returning the identity
// it encodes.
func (a *JWTAuthenticator) ValidateToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, errors.NewAuthFailed("token required")
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewAuthFailed("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAuthExpired()
		}
		return nil, errors.NewAuthFailed("invalid token")
	}
	if !parsed.Valid {
		return nil, errors.NewAuthFailed("invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, errors.NewAuthFailed("invalid claims")
	}

	role, err := users.ParseRole(claims.Role)
	if err != nil {
		return nil, errors.NewAuthFailed("unknown role in token")
	}

	identity := &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   role,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
