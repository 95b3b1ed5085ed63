package auth

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// passwordHashPattern accepts the modular crypt format bcrypt emits:
// $2a$, $2b$ or $2y$, a two digit cost, then 53 chars of salt and digest.
var passwordHashPattern = regexp.MustCompile(`^\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}$`)

// User is the authentication-relevant account model.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                         uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email                      string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash               string     `bun:"password_hash,notnull" json:"-"`
	Active                     bool       `bun:"is_active" json:"is_active"`
	EmailConfirmed             bool       `bun:"is_email_confirmed" json:"is_email_confirmed"`
	FirstName                  string     `bun:"first_name" json:"first_name,omitempty"`
	LastName                   string     `bun:"last_name" json:"last_name,omitempty"`
	InvitedByID                *uuid.UUID `bun:"invited_by_id,nullzero,type:uuid" json:"invited_by_id,omitempty"`
	CreatedAt                  *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt                  *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	LastCredentialInvalidation *time.Time `bun:"last_credential_invalidation,nullzero" json:"last_credential_invalidation,omitempty"`
}

// NewUser builds a user in its sign-up state: active, email unconfirmed.
// The password hash format is validated here and at every password update.
func NewUser(email, passwordHash string) (*User, error) {
	now := time.Now()
	user := &User{
		ID:             uuid.New(),
		Email:          email,
		PasswordHash:   passwordHash,
		Active:         true,
		EmailConfirmed: false,
		CreatedAt:      &now,
		UpdatedAt:      &now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate will run validation rules
func (u *User) Validate() error {
	err := validation.ValidateStruct(u,
		validation.Field(&u.Email, validation.Required, is.Email),
		validation.Field(&u.PasswordHash, validation.Required),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user attributes")
	}

	if !passwordHashPattern.MatchString(u.PasswordHash) {
		return ErrInvalidPasswordHash
	}

	return nil
}

// CanAuthenticate reports whether tokens may be validated against this
// account: it must be active and its email confirmed.
func (u *User) CanAuthenticate() bool {
	return u.Active && u.EmailConfirmed
}

// Activate marks the account usable again.
func (u *User) Activate() {
	u.Active = true
	u.touch()
}

// Deactivate blocks authentication without deleting the record.
func (u *User) Deactivate() {
	u.Active = false
	u.touch()
}

// ConfirmEmail records that the account's email address was verified.
func (u *User) ConfirmEmail() {
	u.EmailConfirmed = true
	u.touch()
}

// UpdateFirstName sets the first name.
func (u *User) UpdateFirstName(firstName string) {
	u.FirstName = firstName
	u.touch()
}

// UpdateLastName sets the last name.
func (u *User) UpdateLastName(lastName string) {
	u.LastName = lastName
	u.touch()
}

// UpdatePassword swaps the password hash and stamps the credential
// invalidation cutoff, retroactively invalidating every token issued
// before now even if the cache-backed revocation registry is unavailable.
func (u *User) UpdatePassword(passwordHash string) error {
	if !passwordHashPattern.MatchString(passwordHash) {
		return ErrInvalidPasswordHash
	}

	u.PasswordHash = passwordHash
	u.InvalidateCredentials()
	return nil
}

// InvalidateCredentials stamps LastCredentialInvalidation with the current
// time. Tokens issued strictly before the (second-truncated) stamp stop
// validating.
func (u *User) InvalidateCredentials() {
	now := time.Now()
	u.LastCredentialInvalidation = &now
	u.touch()
}

func (u *User) touch() {
	now := time.Now()
	u.UpdatedAt = &now
}
