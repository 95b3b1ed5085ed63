package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

type ChangePasswordMessage struct {
	UserID          string `json:"user_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (e ChangePasswordMessage) Type() string { return "user.change_password" }

// ChangePasswordHandler swaps the password hash and stamps the credential
// invalidation cutoff atomically, then revokes the user's outstanding
// tokens. The relational write and the cache revocation are sequenced, not
// transactional together: the DB stamp alone already invalidates older
// tokens, so a crash between the two steps fails safe.
type ChangePasswordHandler struct {
	uow         UnitOfWork
	revocations RevocationStore
	logger      Logger
}

func NewChangePasswordHandler(uow UnitOfWork, revocations RevocationStore) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		uow:         uow,
		revocations: revocations,
		logger:      defLogger{},
	}
}

func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := ExecuteInUnitOfWork(ctx, h.uow, func(ctx context.Context, repos RepositoryContext) (*User, error) {
		user, err := repos.Users().GetByID(ctx, event.UserID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, err
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user")
		}

		if event.CurrentPassword != "" {
			if err := ComparePasswordAndHash(event.CurrentPassword, user.PasswordHash); err != nil {
				return nil, err
			}
		}

		hash, err := HashPassword(event.NewPassword)
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

	// runs after commit: the DB invalidation stamp is already durable, so a
	// failure here only delays enforcement until the validator's stamp check
	if err := h.revocations.RevokeAllUserTokens(ctx, user.ID.String()); err != nil {
		return err
	}

	h.logger.Info("changed password", "user_id", user.ID.String())
	return nil
}
