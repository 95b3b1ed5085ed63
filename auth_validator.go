package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	repository "github.com/goliatone/go-repository-bun"
)

// AuthValidatorImpl implements the AuthValidator interface. Checks are
// ordered cheapest and most decisive first; each one short-circuits.
type AuthValidatorImpl struct {
	users       UserLoader
	revocations RevocationStore
	codec       TokenCodec
	logger      Logger
}

// NewAuthValidator creates a new AuthValidator instance.
func NewAuthValidator(users UserLoader, revocations RevocationStore, codec TokenCodec) *AuthValidatorImpl {
	return &AuthValidatorImpl{
		users:       users,
		revocations: revocations,
		codec:       codec,
		logger:      defLogger{},
	}
}

func (v *AuthValidatorImpl) WithLogger(logger Logger) *AuthValidatorImpl {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Authenticate verifies the raw token string and then runs the full
// validation pipeline. This is the entry point request filters call.
func (v *AuthValidatorImpl) Authenticate(ctx context.Context, tokenString string) (*User, error) {
	token, err := v.codec.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, token)
}

// Validate decides whether an already verified token still authorizes
// access, returning the loaded user on success.
//
// The pipeline, in order:
//  1. reject non-access tokens before touching any store
//  2. load the user; a missing user gets the same rejection shape as bad
//     credentials so callers cannot probe for account existence
//  3. reject inactive or unconfirmed accounts regardless of the token
//  4. reject tokens issued before the user's credential invalidation stamp;
//     this works even when the cache-backed registry is unavailable
//  5. ask the revocation registry, the only remaining network round trip
func (v *AuthValidatorImpl) Validate(ctx context.Context, token AuthToken) (*User, error) {
	if token == nil || !token.IsValidForAuthentication() {
		return nil, wrongTypeError(token, TokenTypeAccess)
	}

	user, err := v.users.GetByID(ctx, token.Subject())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			v.logger.Debug("validate subject has no account", "sub", token.Subject())
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user during validation")
	}

	if !user.CanAuthenticate() {
		v.logger.Debug(
			"validate rejected account state",
			"user_id", user.ID.String(),
			"state", print.MaybePrettyJSON(map[string]any{
				"active":          user.Active,
				"email_confirmed": user.EmailConfirmed,
			}),
		)
		return nil, ErrUserNotAuthenticatable
	}

	if credentialsInvalidatedAfter(user, token.IssuedAt()) {
		return nil, ErrStaleCredentials
	}

	valid, err := v.revocations.IsValid(ctx, token)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrTokenRevoked
	}

	return user, nil
}

// credentialsInvalidatedAfter applies the database-timestamp check: the
// invalidation stamp is truncated to seconds before the comparison, and a
// stamp equal to iat keeps the token valid. This deliberately duplicates
// the registry's cutoff semantics as defense in depth against cache loss.
func credentialsInvalidatedAfter(user *User, iat time.Time) bool {
	if user.LastCredentialInvalidation == nil {
		return false
	}
	return user.LastCredentialInvalidation.Truncate(time.Second).Unix() > iat.Unix()
}

func wrongTypeError(token AuthToken, want TokenType) error {
	meta := map[string]any{"want": string(want)}
	if token != nil {
		meta["got"] = string(token.Type())
	}
	return goerrors.New("token type does not authorize this operation", goerrors.CategoryAuth).
		WithTextCode(TextCodeTokenWrongType).
		WithCode(goerrors.CodeUnauthorized).
		WithMetadata(meta)
}

// Verify interface compliance
var _ AuthValidator = (*AuthValidatorImpl)(nil)
