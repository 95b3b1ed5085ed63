package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
)

type stubUserLoader struct {
	user  *User
	err   error
	calls int
}

func (s *stubUserLoader) GetByID(ctx context.Context, id string) (*User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubRevocations struct {
	valid bool
	err   error
	calls int
}

func (s *stubRevocations) RevokeToken(ctx context.Context, token AuthToken) error {
	return nil
}

func (s *stubRevocations) RevokeAllForUser(ctx context.Context, userID string, tokenType TokenType) error {
	return nil
}

func (s *stubRevocations) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return nil
}

func (s *stubRevocations) IsValid(ctx context.Context, token AuthToken) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.valid, nil
}

func authenticatableUser(t *testing.T) *User {
	t.Helper()
	user, err := NewUser("pepe@example.com", validHash)
	if err != nil {
		t.Fatal(err)
	}
	user.ConfirmEmail()
	return user
}

func TestValidateRejectsNonAccessTokensWithoutUserLookup(t *testing.T) {
	loader := &stubUserLoader{}
	revocations := &stubRevocations{valid: true}
	validator := NewAuthValidator(loader, revocations, NewTokenCodec(testConfigs()))

	for _, tokenType := range []TokenType{TokenTypeRefresh, TokenTypeEmailConfirmation, TokenTypePasswordRecovery} {
		token := tokenIssuedAt("abc", "user-1", tokenType, time.Now())

		_, err := validator.Validate(context.Background(), token)
		if err == nil {
			t.Fatalf("expected %s token to be rejected", tokenType)
		}
		if !IsUnauthorizedError(err) {
			t.Errorf("expected an authorization rejection, got %v", err)
		}
	}

	if loader.calls != 0 {
		t.Errorf("user store should not be queried for non-access tokens, got %d calls", loader.calls)
	}
	if revocations.calls != 0 {
		t.Errorf("revocation registry should not be queried for non-access tokens, got %d calls", revocations.calls)
	}
}

func TestValidateRejectsMissingUserWithOpaqueError(t *testing.T) {
	loader := &stubUserLoader{err: repository.NewRecordNotFound()}
	validator := NewAuthValidator(loader, &stubRevocations{valid: true}, NewTokenCodec(testConfigs()))

	token := tokenIssuedAt("abc", "ghost", TokenTypeAccess, time.Now())

	_, err := validator.Validate(context.Background(), token)
	if err == nil {
		t.Fatal("expected missing user to be rejected")
	}

	// the rejection must be indistinguishable from a credential mismatch
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestValidateRejectsAccountState(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*User)
	}{
		{"inactive", func(u *User) { u.Deactivate() }},
		{"unconfirmed", func(u *User) { u.EmailConfirmed = false }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := authenticatableUser(t)
			tc.setup(user)

			validator := NewAuthValidator(&stubUserLoader{user: user}, &stubRevocations{valid: true}, NewTokenCodec(testConfigs()))
			token := tokenIssuedAt("abc", user.ID.String(), TokenTypeAccess, time.Now())

			_, err := validator.Validate(context.Background(), token)
			if !errors.Is(err, ErrUserNotAuthenticatable) {
				t.Errorf("expected ErrUserNotAuthenticatable, got %v", err)
			}
		})
	}
}

func TestValidateRejectsTokensIssuedBeforeCredentialInvalidation(t *testing.T) {
	user := authenticatableUser(t)

	stamp := time.Now()
	user.LastCredentialInvalidation = &stamp

	validator := NewAuthValidator(&stubUserLoader{user: user}, &stubRevocations{valid: true}, NewTokenCodec(testConfigs()))

	earlier := tokenIssuedAt("abc", user.ID.String(), TokenTypeAccess, stamp.Add(-time.Minute))
	if _, err := validator.Validate(context.Background(), earlier); !errors.Is(err, ErrStaleCredentials) {
		t.Errorf("expected ErrStaleCredentials for an earlier token, got %v", err)
	}

	// equality at second granularity favors "still valid"
	sameSecond := tokenIssuedAt("def", user.ID.String(), TokenTypeAccess, stamp.Truncate(time.Second))
	if _, err := validator.Validate(context.Background(), sameSecond); err != nil {
		t.Errorf("token issued in the invalidation second should pass, got %v", err)
	}

	later := tokenIssuedAt("ghi", user.ID.String(), TokenTypeAccess, stamp.Add(time.Minute))
	if _, err := validator.Validate(context.Background(), later); err != nil {
		t.Errorf("token issued after invalidation should pass, got %v", err)
	}
}

func TestValidateRejectsRevokedTokens(t *testing.T) {
	user := authenticatableUser(t)
	validator := NewAuthValidator(&stubUserLoader{user: user}, &stubRevocations{valid: false}, NewTokenCodec(testConfigs()))

	token := tokenIssuedAt("abc", user.ID.String(), TokenTypeAccess, time.Now())

	if _, err := validator.Validate(context.Background(), token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestValidatePropagatesRevocationFailures(t *testing.T) {
	user := authenticatableUser(t)
	infra := errors.New("cache unreachable")
	validator := NewAuthValidator(&stubUserLoader{user: user}, &stubRevocations{err: infra}, NewTokenCodec(testConfigs()))

	token := tokenIssuedAt("abc", user.ID.String(), TokenTypeAccess, time.Now())

	_, err := validator.Validate(context.Background(), token)
	if err == nil {
		t.Fatal("expected infrastructure failure to propagate")
	}
	if errors.Is(err, ErrTokenRevoked) {
		t.Error("an unreachable registry is not a revocation")
	}
}

func TestValidateReturnsUserOnSuccess(t *testing.T) {
	user := authenticatableUser(t)
	revocations := &stubRevocations{valid: true}
	validator := NewAuthValidator(&stubUserLoader{user: user}, revocations, NewTokenCodec(testConfigs()))

	token := tokenIssuedAt("abc", user.ID.String(), TokenTypeAccess, time.Now())

	got, err := validator.Validate(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID {
		t.Error("expected the loaded user back")
	}
	if revocations.calls != 1 {
		t.Errorf("expected exactly one revocation check, got %d", revocations.calls)
	}
}

func TestAuthenticateVerifiesBeforeValidating(t *testing.T) {
	user := authenticatableUser(t)
	codec := NewTokenCodec(testConfigs())
	loader := &stubUserLoader{user: user}
	validator := NewAuthValidator(loader, &stubRevocations{valid: true}, codec)

	raw, err := codec.Issue(user, TokenTypeAccess)
	if err != nil {
		t.Fatal(err)
	}

	got, err := validator.Authenticate(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID {
		t.Error("expected the loaded user back")
	}

	if _, err := validator.Authenticate(context.Background(), "garbage"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
	if loader.calls != 1 {
		t.Errorf("malformed tokens should not reach the user store, got %d calls", loader.calls)
	}
}
