package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeTokenExpired marks tokens past their exp claim.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks tokens we could not decode or verify.
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeTokenRevoked marks tokens rejected by the revocation registry.
	TextCodeTokenRevoked = "TOKEN_REVOKED"
	// TextCodeTokenWrongType marks tokens presented to an operation that
	// requires a different token type.
	TextCodeTokenWrongType = "TOKEN_WRONG_TYPE"
	// TextCodeStaleCredentials marks tokens issued before the user's last
	// credential invalidation.
	TextCodeStaleCredentials = "STALE_CREDENTIALS"
	// TextCodeUserNotAuthenticatable marks rejections for inactive or
	// unconfirmed accounts.
	TextCodeUserNotAuthenticatable = "USER_NOT_AUTHENTICATABLE"
	// TextCodeInvalidPasswordHash marks password hashes that do not match
	// the expected hash format.
	TextCodeInvalidPasswordHash = "INVALID_PASSWORD_HASH"
	// TextCodeUnknownTokenType marks lookups for a token type outside the
	// closed enum. Defensive: unreachable through the public API.
	TextCodeUnknownTokenType = "UNKNOWN_TOKEN_TYPE"
	// TextCodeTransactionCancelled marks unit of work executions rolled
	// back through an explicit Cancel call.
	TextCodeTransactionCancelled = "TRANSACTION_CANCELLED"
)

// ErrTokenExpired is returned when a token fails verification on its exp claim.
var ErrTokenExpired = goerrors.New("authentication token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that cannot be decoded or whose
// signature does not verify.
var ErrTokenMalformed = goerrors.New("authentication token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenRevoked is returned when the revocation registry rejects a token.
var ErrTokenRevoked = goerrors.New("authentication token has been revoked", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities.
// It deliberately carries the same category, code, and message as an
// account-state rejection so callers cannot probe for account existence,
// even at boundaries that echo error messages.
var ErrIdentityNotFound = goerrors.New("user cannot authenticate", goerrors.CategoryAuth).
	WithTextCode(TextCodeUserNotAuthenticatable).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotAuthenticatable is returned when the account exists but is
// inactive or its email was never confirmed.
var ErrUserNotAuthenticatable = goerrors.New("user cannot authenticate", goerrors.CategoryAuth).
	WithTextCode(TextCodeUserNotAuthenticatable).
	WithCode(goerrors.CodeUnauthorized)

// ErrStaleCredentials is returned for tokens issued before the user's last
// credential invalidation timestamp.
var ErrStaleCredentials = goerrors.New("token predates credential invalidation", goerrors.CategoryAuth).
	WithTextCode(TextCodeStaleCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidPasswordHash is returned for password hashes that fail the
// format check at construction or password update.
var ErrInvalidPasswordHash = goerrors.New("password hash has an invalid format", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidPasswordHash).
	WithCode(goerrors.CodeBadRequest)

// ErrUnknownTokenType is returned when the per-type configuration table is
// asked about a type outside the closed enum.
var ErrUnknownTokenType = goerrors.New("unknown token type", goerrors.CategoryInternal).
	WithTextCode(TextCodeUnknownTokenType).
	WithCode(goerrors.CodeInternal)

// ErrTransactionCancelled is returned when a unit of work rolls back through
// an explicit Cancel rather than a failure.
var ErrTransactionCancelled = goerrors.New("transaction cancelled", goerrors.CategoryOperation).
	WithTextCode(TextCodeTransactionCancelled).
	WithCode(goerrors.CodeConflict)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUnauthorizedError reports whether err is any of the policy rejections:
// wrong type, revoked, inactive account, unconfirmed email, or stale
// credentials.
func IsUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}

	return richErr.Category == goerrors.CategoryAuth
}
