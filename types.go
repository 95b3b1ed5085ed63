package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Cache is the capability the revocation registry consumes. Get reports
// absence through the boolean rather than an error; infrastructure failures
// come back as errors and must propagate to the caller.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// UserLoader is the narrow read capability validation flows need.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// UserFinder extends UserLoader with identifier lookup (id or email).
type UserFinder interface {
	UserLoader
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// TokenCodec issues and verifies signed, typed tokens.
type TokenCodec interface {
	Issue(user *User, tokenType TokenType) (string, error)
	Verify(tokenString string) (AuthToken, error)
}

// RevocationStore tracks revoked tokens at three granularities: a single
// jti, every token of one type for a user, and every token for a user.
type RevocationStore interface {
	RevokeToken(ctx context.Context, token AuthToken) error
	RevokeAllForUser(ctx context.Context, userID string, tokenType TokenType) error
	RevokeAllUserTokens(ctx context.Context, userID string) error
	IsValid(ctx context.Context, token AuthToken) (bool, error)
}

// AuthValidator decides whether a presented token still authorizes access,
// returning the loaded user on success.
type AuthValidator interface {
	Validate(ctx context.Context, token AuthToken) (*User, error)
	Authenticate(ctx context.Context, tokenString string) (*User, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
