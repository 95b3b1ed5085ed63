package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"
)

const (
	revocationKeyPrefix = "revocation"
	// revokedSentinel is the value stored under single-token keys; presence
	// is the signal, the value is never inspected.
	revokedSentinel = "revoked"
	// revocationScopeAll shadows every token type for a user.
	revocationScopeAll = "all"
)

// RevocationStoreImpl implements the RevocationStore interface on top of a
// TTL cache. Records self-expire no later than the tokens they target, so
// the registry never needs sweeping.
type RevocationStoreImpl struct {
	cache   Cache
	configs TokenConfigs
	logger  Logger
}

// NewRevocationStore creates a new RevocationStore instance.
func NewRevocationStore(cache Cache, configs TokenConfigs) *RevocationStoreImpl {
	return &RevocationStoreImpl{
		cache:   cache,
		configs: configs,
		logger:  defLogger{},
	}
}

func (rs *RevocationStoreImpl) WithLogger(logger Logger) *RevocationStoreImpl {
	if logger != nil {
		rs.logger = logger
	}
	return rs
}

// RevokeToken writes a single-token record for the token's jti. The record
// carries the TTL of the token's type, so it outlives the token it shadows.
// Re-revoking an already revoked token is a no-op overwrite; the operation
// is idempotent.
func (rs *RevocationStoreImpl) RevokeToken(ctx context.Context, token AuthToken) error {
	if token == nil || token.TokenID() == "" {
		return goerrors.New("cannot revoke a token without a jti", goerrors.CategoryBadInput)
	}

	cfg, err := rs.configs.ForType(token.Type())
	if err != nil {
		return err
	}

	key := tokenRevocationKey(token.TokenID())
	if err := rs.cache.Set(ctx, key, revokedSentinel, cfg.TTL); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write token revocation record")
	}

	rs.logger.Debug("revoked token", "jti", token.TokenID(), "type", token.Type().String())
	return nil
}

// RevokeAllForUser writes a type-scoped cutoff for the user: every token of
// that type issued strictly before now stops validating. Overwrites any
// previous cutoff for the same scope.
func (rs *RevocationStoreImpl) RevokeAllForUser(ctx context.Context, userID string, tokenType TokenType) error {
	cfg, err := rs.configs.ForType(tokenType)
	if err != nil {
		return err
	}

	return rs.writeCutoff(ctx, userID, string(tokenType), cfg.TTL)
}

// RevokeAllUserTokens writes an all-scope cutoff for the user, shadowing
// every token type. The record carries the longest configured TTL so it
// outlives every kind of token it might shadow.
func (rs *RevocationStoreImpl) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return rs.writeCutoff(ctx, userID, revocationScopeAll, rs.configs.LongestTTL())
}

// IsValid reports whether the registry still considers the token valid. The
// three relevant keys are read concurrently; the decision is a pure AND of
// independent predicates so ordering does not matter. Absence of a record
// means "not revoked". Cache failures propagate: the caller must not treat
// an unreachable registry as "valid".
func (rs *RevocationStoreImpl) IsValid(ctx context.Context, token AuthToken) (bool, error) {
	if token == nil {
		return false, goerrors.New("cannot check a nil token", goerrors.CategoryBadInput)
	}

	iat := token.IssuedAt().Unix()

	var revokedByID, revokedByType, revokedByAll bool

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, found, err := rs.cache.Get(ctx, tokenRevocationKey(token.TokenID()))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read token revocation record")
		}
		revokedByID = found
		return nil
	})

	g.Go(func() error {
		cutoff, err := rs.readCutoff(ctx, userRevocationKey(token.Subject(), string(token.Type())))
		if err != nil {
			return err
		}
		revokedByType = cutoffInvalidates(cutoff, iat)
		return nil
	})

	g.Go(func() error {
		cutoff, err := rs.readCutoff(ctx, userRevocationKey(token.Subject(), revocationScopeAll))
		if err != nil {
			return err
		}
		revokedByAll = cutoffInvalidates(cutoff, iat)
		return nil
	})

	if err := g.Wait(); err != nil {
		return false, err
	}

	return !revokedByID && !revokedByType && !revokedByAll, nil
}

func (rs *RevocationStoreImpl) writeCutoff(ctx context.Context, userID, scope string, ttl time.Duration) error {
	if userID == "" {
		return goerrors.New("cannot revoke tokens without a user id", goerrors.CategoryBadInput)
	}

	cutoff := strconv.FormatInt(time.Now().Unix(), 10)
	key := userRevocationKey(userID, scope)

	if err := rs.cache.Set(ctx, key, cutoff, ttl); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write revocation cutoff").
			WithMetadata(map[string]any{"user_id": userID, "scope": scope})
	}

	rs.logger.Debug("revoked user tokens", "user_id", userID, "scope", scope, "cutoff", cutoff)
	return nil
}

// readCutoff returns the stored cutoff in Unix seconds, or nil when the
// scope has no record.
func (rs *RevocationStoreImpl) readCutoff(ctx context.Context, key string) (*int64, error) {
	value, found, err := rs.cache.Get(ctx, key)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read revocation cutoff")
	}
	if !found {
		return nil, nil
	}

	cutoff, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "revocation cutoff record is corrupted").
			WithMetadata(map[string]any{"key": key, "value": value})
	}

	return &cutoff, nil
}

// cutoffInvalidates applies the boundary rule: a token issued at exactly
// the cutoff second stays valid. The boundary favors "still valid",
// accepting second-granularity imprecision.
func cutoffInvalidates(cutoff *int64, iat int64) bool {
	return cutoff != nil && *cutoff > iat
}

func tokenRevocationKey(jti string) string {
	return fmt.Sprintf("%s:token:%s", revocationKeyPrefix, jti)
}

func userRevocationKey(userID, scope string) string {
	return fmt.Sprintf("%s:user:%s:%s", revocationKeyPrefix, userID, scope)
}

// Verify interface compliance
var _ RevocationStore = (*RevocationStoreImpl)(nil)
