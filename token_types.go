package auth

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// TokenType is the closed set of token kinds this package can issue.
type TokenType string

const (
	// TokenTypeAccess authorizes regular API access.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh can only be exchanged for a fresh token pair.
	TokenTypeRefresh TokenType = "refresh"
	// TokenTypeEmailConfirmation is a single-use email confirmation token.
	TokenTypeEmailConfirmation TokenType = "email-confirmation"
	// TokenTypePasswordRecovery is a single-use password recovery token.
	TokenTypePasswordRecovery TokenType = "password-recovery"
)

// TokenTypes lists every member of the closed enum, in issuance order.
var TokenTypes = [...]TokenType{
	TokenTypeAccess,
	TokenTypeRefresh,
	TokenTypeEmailConfirmation,
	TokenTypePasswordRecovery,
}

// Valid reports whether t is a member of the closed enum.
func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeEmailConfirmation, TokenTypePasswordRecovery:
		return true
	default:
		return false
	}
}

func (t TokenType) String() string {
	return string(t)
}

// TokenConfig pairs the signing secret and TTL for one token type.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// TokenConfigs is the per-type configuration table, one entry per member of
// the closed enum. It is injected at construction; there is no runtime
// stringly-typed lookup.
type TokenConfigs struct {
	Access            TokenConfig
	Refresh           TokenConfig
	EmailConfirmation TokenConfig
	PasswordRecovery  TokenConfig
}

// ForType returns the configuration for a token type. The error branch is
// unreachable for enum members; it exists so a corrupted type read off the
// wire fails loudly instead of signing with a zero secret.
func (c TokenConfigs) ForType(t TokenType) (TokenConfig, error) {
	switch t {
	case TokenTypeAccess:
		return c.Access, nil
	case TokenTypeRefresh:
		return c.Refresh, nil
	case TokenTypeEmailConfirmation:
		return c.EmailConfirmation, nil
	case TokenTypePasswordRecovery:
		return c.PasswordRecovery, nil
	default:
		return TokenConfig{}, goerrors.Wrap(ErrUnknownTokenType, goerrors.CategoryInternal, "no configuration for token type").
			WithMetadata(map[string]any{"token_type": string(t)})
	}
}

// LongestTTL returns the longest TTL across the four types. An all-scope
// revocation record must outlive every kind of token it might shadow.
func (c TokenConfigs) LongestTTL() time.Duration {
	longest := c.Access.TTL
	for _, ttl := range []time.Duration{c.Refresh.TTL, c.EmailConfirmation.TTL, c.PasswordRecovery.TTL} {
		if ttl > longest {
			longest = ttl
		}
	}
	return longest
}

// Validate checks that every entry in the table carries a secret and a
// positive TTL.
func (c TokenConfigs) Validate() error {
	for _, t := range TokenTypes {
		cfg, err := c.ForType(t)
		if err != nil {
			return err
		}
		if len(cfg.Secret) == 0 {
			return goerrors.New("token type is missing a signing secret", goerrors.CategoryValidation).
				WithMetadata(map[string]any{"token_type": string(t)})
		}
		if cfg.TTL <= 0 {
			return goerrors.New("token type needs a positive TTL", goerrors.CategoryValidation).
				WithMetadata(map[string]any{"token_type": string(t)})
		}
	}
	return nil
}
