package auth_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-tokenauth"
)

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(errors.New("token is expired by 3m")))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, auth.IsMalformedError(auth.ErrTokenExpired))
	assert.False(t, auth.IsMalformedError(nil))
}

func TestIsUnauthorizedError(t *testing.T) {
	for _, err := range []error{
		auth.ErrTokenExpired,
		auth.ErrTokenRevoked,
		auth.ErrIdentityNotFound,
		auth.ErrUserNotAuthenticatable,
		auth.ErrStaleCredentials,
	} {
		assert.True(t, auth.IsUnauthorizedError(err), "%v", err)
	}

	assert.False(t, auth.IsUnauthorizedError(auth.ErrUnknownTokenType))
	assert.False(t, auth.IsUnauthorizedError(errors.New("boom")))
	assert.False(t, auth.IsUnauthorizedError(nil))
}

func TestMissingIdentityIsIndistinguishableFromBadAccountState(t *testing.T) {
	var missing, inactive *goerrors.Error
	assert.True(t, goerrors.As(auth.ErrIdentityNotFound, &missing))
	assert.True(t, goerrors.As(auth.ErrUserNotAuthenticatable, &inactive))

	assert.Equal(t, missing.Category, inactive.Category)
	assert.Equal(t, missing.Code, inactive.Code)
	assert.Equal(t, missing.TextCode, inactive.TextCode)
	assert.Equal(t, missing.Message, inactive.Message)
}
