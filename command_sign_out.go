package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type SignOutMessage struct {
	// Token is the raw access token the session presented.
	Token string `json:"token"`
	// AllSessions widens the revocation from this token's jti to an
	// all-scope cutoff for the user.
	AllSessions bool `json:"all_sessions"`
}

func (e SignOutMessage) Type() string { return "user.sign_out" }

// SignOutHandler revokes the presented token. Tokens are stateless, so
// sign-out touches only the revocation registry; there is no relational
// write to make transactional.
type SignOutHandler struct {
	codec       TokenCodec
	revocations RevocationStore
	logger      Logger
}

func NewSignOutHandler(codec TokenCodec, revocations RevocationStore) *SignOutHandler {
	return &SignOutHandler{
		codec:       codec,
		revocations: revocations,
		logger:      defLogger{},
	}
}

func (h *SignOutHandler) WithLogger(logger Logger) *SignOutHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignOutHandler) Execute(ctx context.Context, event SignOutMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign out",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignOutHandler) execute(ctx context.Context, event SignOutMessage) error {
	token, err := h.codec.Verify(event.Token)
	if err != nil {
		return err
	}

	if !token.IsValidForAuthentication() {
		return wrongTypeError(token, TokenTypeAccess)
	}

	if err := h.revocations.RevokeToken(ctx, token); err != nil {
		return err
	}

	if event.AllSessions {
		if err := h.revocations.RevokeAllUserTokens(ctx, token.Subject()); err != nil {
			return err
		}
	}

	h.logger.Info("signed out", "user_id", token.Subject(), "all_sessions", event.AllSessions)
	return nil
}
