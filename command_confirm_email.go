package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

type ConfirmEmailMessage struct {
	// Token is the raw email confirmation token from the link we mailed out.
	Token string `json:"token"`
}

func (e ConfirmEmailMessage) Type() string { return "user.confirm_email" }

// ConfirmEmailHandler marks the account's email as verified. Confirmation
// tokens are single use: the jti is revoked once the flag is committed.
type ConfirmEmailHandler struct {
	uow         UnitOfWork
	codec       TokenCodec
	revocations RevocationStore
	logger      Logger
}

func NewConfirmEmailHandler(uow UnitOfWork, codec TokenCodec, revocations RevocationStore) *ConfirmEmailHandler {
	return &ConfirmEmailHandler{
		uow:         uow,
		codec:       codec,
		revocations: revocations,
		logger:      defLogger{},
	}
}

func (h *ConfirmEmailHandler) WithLogger(logger Logger) *ConfirmEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmEmailHandler) Execute(ctx context.Context, event ConfirmEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailHandler) execute(ctx context.Context, event ConfirmEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	token, err := h.codec.Verify(event.Token)
	if err != nil {
		return err
	}

	if token.Type() != TokenTypeEmailConfirmation {
		return wrongTypeError(token, TokenTypeEmailConfirmation)
	}

	valid, err := h.revocations.IsValid(ctx, token)
	if err != nil {
		return err
	}
	if !valid {
		return ErrTokenRevoked
	}

	err = h.uow.Execute(ctx, func(ctx context.Context, repos RepositoryContext) error {
		user, err := repos.Users().GetByID(ctx, token.Subject())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user")
		}

		user.ConfirmEmail()

		if _, err := repos.Users().Update(ctx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist email confirmation")
		}

		return nil
	})
	if err != nil {
		return err
	}

	// single use: burn the jti once the confirmation is durable
	if err := h.revocations.RevokeToken(ctx, token); err != nil {
		return err
	}

	h.logger.Info("confirmed email", "user_id", token.Subject())
	return nil
}
