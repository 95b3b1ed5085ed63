package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

type RegisterUserMessage struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	InvitedByID string `json:"invited_by_id"`
	UseHashid   bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates the account inside a unit of work and, on
// commit, mints the email confirmation token the caller is expected to
// deliver. Delivery itself is out of scope.
type RegisterUserHandler struct {
	uow    UnitOfWork
	codec  TokenCodec
	logger Logger
}

func NewRegisterUserHandler(uow UnitOfWork, codec TokenCodec) *RegisterUserHandler {
	return &RegisterUserHandler{
		uow:    uow,
		codec:  codec,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	_, _, err := h.Register(ctx, event)
	return err
}

// Register runs the sign-up flow and returns the created user plus the
// email confirmation token string.
func (h *RegisterUserHandler) Register(ctx context.Context, event RegisterUserMessage) (*User, string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := ExecuteInUnitOfWork(ctx, h.uow, func(ctx context.Context, repos RepositoryContext) (*User, error) {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user, err := NewUser(event.Email, hash)
		if err != nil {
			return nil, err
		}

		user.FirstName = event.FirstName
		user.LastName = event.LastName

		if event.InvitedByID != "" {
			invitedBy, err := uuid.Parse(event.InvitedByID)
			if err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid inviter id")
			}
			user.InvitedByID = &invitedBy
		}

		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		// storage enforces email uniqueness; a concurrent duplicate insert
		// loses the race and surfaces here as a conflict
		if user, err = repos.Users().Register(ctx, user); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
				return nil, err
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return user, nil
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, "", richErr
		}
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	confirmation, err := h.codec.Issue(user, TokenTypeEmailConfirmation)
	if err != nil {
		return nil, "", err
	}

	h.logger.Info("registered user", "user_id", user.ID.String())

	return user, confirmation, nil
}
