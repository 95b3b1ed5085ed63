package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

type InitializePasswordRecoveryMessage struct {
	Email string `json:"email"`
}

func (e InitializePasswordRecoveryMessage) Type() string { return "user.password_recovery_initialize" }

// InitializePasswordRecoveryHandler mints the password recovery token for
// an account. The raw token goes back to the caller, who owns delivery;
// this package never sends mail.
type InitializePasswordRecoveryHandler struct {
	users  UserFinder
	codec  TokenCodec
	logger Logger
}

func NewInitializePasswordRecoveryHandler(users UserFinder, codec TokenCodec) *InitializePasswordRecoveryHandler {
	return &InitializePasswordRecoveryHandler{
		users:  users,
		codec:  codec,
		logger: defLogger{},
	}
}

func (h *InitializePasswordRecoveryHandler) WithLogger(logger Logger) *InitializePasswordRecoveryHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordRecoveryHandler) Execute(ctx context.Context, event InitializePasswordRecoveryMessage) error {
	_, err := h.Initialize(ctx, event)
	return err
}

// Initialize returns the raw recovery token for the account behind the
// email. A missing account comes back as ErrIdentityNotFound; the boundary
// decides whether to mask it.
func (h *InitializePasswordRecoveryHandler) Initialize(ctx context.Context, event InitializePasswordRecoveryMessage) (string, error) {
	user, err := h.users.GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrIdentityNotFound
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user")
	}

	if !user.Active {
		return "", ErrUserNotAuthenticatable
	}

	token, err := h.codec.Issue(user, TokenTypePasswordRecovery)
	if err != nil {
		return "", err
	}

	h.logger.Info("initialized password recovery", "user_id", user.ID.String())
	return token, nil
}
