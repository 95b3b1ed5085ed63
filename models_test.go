package auth

import (
	"strings"
	"testing"
	"time"
)

const validHash = "$2a$14$uPx5dIt0SgaePL7BOO8xLuMy1GmLz2dCGrBvMdhLDRqfJhPHQP8pC"

func TestNewUserStartsActiveAndUnconfirmed(t *testing.T) {
	u, err := NewUser("pepe@example.com", validHash)
	if err != nil {
		t.Fatalf("expected user, got error: %v", err)
	}

	if !u.Active {
		t.Error("expected new user to be active")
	}

	if u.EmailConfirmed {
		t.Error("expected new user to be unconfirmed")
	}

	if u.CanAuthenticate() {
		t.Error("unconfirmed user should not authenticate")
	}

	if u.CreatedAt == nil || u.UpdatedAt == nil {
		t.Error("expected timestamps to be set")
	}
}

func TestNewUserRejectsBadEmail(t *testing.T) {
	if _, err := NewUser("not-an-email", validHash); err == nil {
		t.Fatal("expected validation error for bad email")
	}
}

func TestNewUserRejectsBadHashFormat(t *testing.T) {
	cases := []string{
		"",
		"plaintext-password",
		"$1$invalid$prefix",
		"$2a$14$tooshort",
		strings.Replace(validHash, "$2a$", "$2z$", 1),
	}

	for _, hash := range cases {
		if _, err := NewUser("pepe@example.com", hash); err == nil {
			t.Errorf("expected hash %q to be rejected", hash)
		}
	}
}

func TestUserCanAuthenticate(t *testing.T) {
	cases := []struct {
		active    bool
		confirmed bool
		expected  bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}

	for _, tc := range cases {
		u := &User{Active: tc.active, EmailConfirmed: tc.confirmed}
		if got := u.CanAuthenticate(); got != tc.expected {
			t.Errorf("active=%v confirmed=%v: expected %v, got %v", tc.active, tc.confirmed, tc.expected, got)
		}
	}
}

func TestUserMutatorsBumpUpdatedAt(t *testing.T) {
	u, err := NewUser("pepe@example.com", validHash)
	if err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-time.Hour)

	mutations := []struct {
		name string
		fn   func()
	}{
		{"Activate", u.Activate},
		{"Deactivate", u.Deactivate},
		{"ConfirmEmail", u.ConfirmEmail},
		{"UpdateFirstName", func() { u.UpdateFirstName("Pepe") }},
		{"UpdateLastName", func() { u.UpdateLastName("Rone") }},
		{"InvalidateCredentials", u.InvalidateCredentials},
	}

	for _, m := range mutations {
		u.UpdatedAt = &past
		m.fn()
		if u.UpdatedAt == nil || !u.UpdatedAt.After(past) {
			t.Errorf("%s did not bump UpdatedAt", m.name)
		}
	}
}

func TestUpdatePasswordStampsInvalidation(t *testing.T) {
	u, err := NewUser("pepe@example.com", validHash)
	if err != nil {
		t.Fatal(err)
	}

	if u.LastCredentialInvalidation != nil {
		t.Fatal("expected no invalidation stamp on a fresh user")
	}

	before := time.Now()
	if err := u.UpdatePassword(validHash); err != nil {
		t.Fatal(err)
	}

	if u.LastCredentialInvalidation == nil {
		t.Fatal("expected invalidation stamp after password update")
	}

	if u.LastCredentialInvalidation.Before(before) {
		t.Error("invalidation stamp should not predate the update")
	}
}

func TestUpdatePasswordRejectsBadHash(t *testing.T) {
	u, err := NewUser("pepe@example.com", validHash)
	if err != nil {
		t.Fatal(err)
	}

	if err := u.UpdatePassword("plaintext"); err == nil {
		t.Fatal("expected bad hash to be rejected")
	}

	if u.PasswordHash != validHash {
		t.Error("rejected update should not change the stored hash")
	}

	if u.LastCredentialInvalidation != nil {
		t.Error("rejected update should not stamp invalidation")
	}
}
