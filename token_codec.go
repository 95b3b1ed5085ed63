package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenCodecImpl implements the TokenCodec interface
type TokenCodecImpl struct {
	configs  TokenConfigs
	issuer   string
	audience jwt.ClaimStrings
	logger   Logger
}

// NewTokenCodec creates a new TokenCodec instance bound to a per-type
// secret and TTL table.
func NewTokenCodec(configs TokenConfigs) *TokenCodecImpl {
	return &TokenCodecImpl{
		configs: configs,
		logger:  defLogger{},
	}
}

func (tc *TokenCodecImpl) WithLogger(logger Logger) *TokenCodecImpl {
	if logger != nil {
		tc.logger = logger
	}
	return tc
}

func (tc *TokenCodecImpl) WithIssuer(issuer string) *TokenCodecImpl {
	tc.issuer = issuer
	return tc
}

func (tc *TokenCodecImpl) WithAudience(audience []string) *TokenCodecImpl {
	if len(audience) > 0 {
		tc.audience = make(jwt.ClaimStrings, len(audience))
		copy(tc.audience, audience)
	}
	return tc
}

// Issue creates a signed token of the given type for a user. Each call
// mints a fresh jti; issuance is deliberately not idempotent.
func (tc *TokenCodecImpl) Issue(user *User, tokenType TokenType) (string, error) {
	if user == nil {
		return "", goerrors.New("user must not be nil", goerrors.CategoryBadInput)
	}

	cfg, err := tc.configs.ForType(tokenType)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tc.issuer,
			Subject:   user.ID.String(),
			Audience:  tc.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
		TokenType: tokenType,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify parses and validates a token string, returning structured claims.
//
// Verification runs in two explicit phases. Phase one decodes the token
// without checking the signature, solely to read the declared type claim so
// we can route to the type-specific secret. Phase two re-parses with
// signature and expiry verification enabled against that secret. Phase-one
// output must never drive authorization: a forged type claim routes to the
// wrong secret and fails the authenticated parse.
func (tc *TokenCodecImpl) Verify(tokenString string) (AuthToken, error) {
	declared, err := tc.peekTokenType(tokenString)
	if err != nil {
		return nil, err
	}

	cfg, err := tc.configs.ForType(declared)
	if err != nil {
		return nil, err
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}
	if len(tc.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(tc.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("TokenCodec verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cfg.Secret, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		tc.logger.Error("TokenCodec verify could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.Subject() == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// peekTokenType reads the declared type claim without verifying the
// signature. The result is untrusted and used only to pick the
// verification secret.
func (tc *TokenCodecImpl) peekTokenType(tokenString string) (TokenType, error) {
	unverified := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, unverified); err != nil {
		return "", goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !unverified.TokenType.Valid() {
		return "", goerrors.Wrap(ErrTokenMalformed, goerrors.CategoryAuth, "token has a missing or unknown type claim").
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	return unverified.TokenType, nil
}

// Verify interface compliance
var _ TokenCodec = (*TokenCodecImpl)(nil)
