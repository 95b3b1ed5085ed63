package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthToken is the verified, ephemeral view of a presented token. It is
// never persisted as a row; the revocation registry derives cache keys
// from it.
type AuthToken interface {
	Subject() string
	TokenID() string
	Type() TokenType
	IssuedAt() time.Time
	Expires() time.Time
	IsExpired() bool
	IsValidForAuthentication() bool
	IsValidForRefresh() bool
}

// TokenClaims is the concrete implementation of AuthToken
type TokenClaims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"type,omitempty"`
}

// Verify interface compliance
var _ AuthToken = (*TokenClaims)(nil)

// Subject returns the subject claim, the user id the token was issued for.
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// TokenID returns the jti claim, unique per issuance.
func (c *TokenClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Type returns the declared token type.
func (c *TokenClaims) Type() TokenType {
	return c.TokenType
}

// IssuedAt returns the iat claim
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IsExpired compares the exp claim, held at second granularity, against the
// current time at millisecond granularity.
func (c *TokenClaims) IsExpired() bool {
	exp := c.Expires()
	if exp.IsZero() {
		return true
	}
	return time.Now().UnixMilli() > exp.Unix()*1000
}

// IsValidForAuthentication reports whether the token may authorize API
// access. Only access tokens qualify.
func (c *TokenClaims) IsValidForAuthentication() bool {
	return c.TokenType == TokenTypeAccess
}

// IsValidForRefresh reports whether the token may be exchanged for a fresh
// pair. Only refresh tokens qualify.
func (c *TokenClaims) IsValidForRefresh() bool {
	return c.TokenType == TokenTypeRefresh
}

// ensureTokenID backfills a fresh jti when the claims carry none.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
