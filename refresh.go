package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// TokenPair is the result of a refresh exchange.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenRefresher rotates refresh tokens: a valid refresh token buys one
// fresh access/refresh pair and is revoked in the same flow.
type TokenRefresher struct {
	users       UserLoader
	revocations RevocationStore
	codec       TokenCodec
	logger      Logger
}

// NewTokenRefresher creates a new TokenRefresher instance.
func NewTokenRefresher(users UserLoader, revocations RevocationStore, codec TokenCodec) *TokenRefresher {
	return &TokenRefresher{
		users:       users,
		revocations: revocations,
		codec:       codec,
		logger:      defLogger{},
	}
}

func (r *TokenRefresher) WithLogger(logger Logger) *TokenRefresher {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Exchange validates the presented refresh token with the same pipeline an
// access token goes through (state, credential stamp, revocation), revokes
// it, and only then issues the new pair. Revoke-then-issue is sequenced,
// never raced: issuing first could hand out a token the revocation was
// meant to pre-empt.
func (r *TokenRefresher) Exchange(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := r.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	if !token.IsValidForRefresh() {
		return nil, wrongTypeError(token, TokenTypeRefresh)
	}

	user, err := r.users.GetByID(ctx, token.Subject())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user during refresh")
	}

	if !user.CanAuthenticate() {
		return nil, ErrUserNotAuthenticatable
	}

	if credentialsInvalidatedAfter(user, token.IssuedAt()) {
		return nil, ErrStaleCredentials
	}

	valid, err := r.revocations.IsValid(ctx, token)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrTokenRevoked
	}

	if err := r.revocations.RevokeToken(ctx, token); err != nil {
		return nil, err
	}

	access, err := r.codec.Issue(user, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	refresh, err := r.codec.Issue(user, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("rotated refresh token", "user_id", user.ID.String(), "jti", token.TokenID())

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
