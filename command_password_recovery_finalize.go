package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

type FinalizePasswordRecoveryMessage struct {
	// Token is the raw password recovery token.
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (e FinalizePasswordRecoveryMessage) Type() string { return "user.password_recovery_finalize" }

// FinalizePasswordRecoveryHandler redeems a recovery token for a new
// password. The hash swap and the invalidation stamp commit atomically;
// the presented token and every other outstanding token for the user are
// revoked afterwards, before anything new can be issued.
type FinalizePasswordRecoveryHandler struct {
	uow         UnitOfWork
	codec       TokenCodec
	revocations RevocationStore
	logger      Logger
}

func NewFinalizePasswordRecoveryHandler(uow UnitOfWork, codec TokenCodec, revocations RevocationStore) *FinalizePasswordRecoveryHandler {
	return &FinalizePasswordRecoveryHandler{
		uow:         uow,
		codec:       codec,
		revocations: revocations,
		logger:      defLogger{},
	}
}

func (h *FinalizePasswordRecoveryHandler) WithLogger(logger Logger) *FinalizePasswordRecoveryHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordRecoveryHandler) Execute(ctx context.Context, event FinalizePasswordRecoveryMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password recovery",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordRecoveryHandler) execute(ctx context.Context, event FinalizePasswordRecoveryMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	token, err := h.codec.Verify(event.Token)
	if err != nil {
		return err
	}

	if token.Type() != TokenTypePasswordRecovery {
		return wrongTypeError(token, TokenTypePasswordRecovery)
	}

	valid, err := h.revocations.IsValid(ctx, token)
	if err != nil {
		return err
	}
	if !valid {
		return ErrTokenRevoked
	}

	user, err := ExecuteInUnitOfWork(ctx, h.uow, func(ctx context.Context, repos RepositoryContext) (*User, error) {
		user, err := repos.Users().GetByID(ctx, token.Subject())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, ErrIdentityNotFound
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user")
		}

		// a recovery token minted before the last credential change is as
		// stale as any other token
		if credentialsInvalidatedAfter(user, token.IssuedAt()) {
			return nil, ErrStaleCredentials
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		if err := user.UpdatePassword(hash); err != nil {
			return nil, err
		}

		if user, err = repos.Users().Update(ctx, user); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new password")
		}

		return user, nil
	})
	if err != nil {
		return err
	}

	// single use, then shadow everything else the user holds
	if err := h.revocations.RevokeToken(ctx, token); err != nil {
		return err
	}
	if err := h.revocations.RevokeAllUserTokens(ctx, user.ID.String()); err != nil {
		return err
	}

	h.logger.Info("recovered password", "user_id", user.ID.String())
	return nil
}
