package auth

import (
	"context"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TxUsers is the user repository surface available inside a unit of work.
// Every call runs against the transaction; nothing is observable until the
// unit of work commits.
type TxUsers interface {
	GetByID(ctx context.Context, id string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	StorePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// RepositoryContext is the transaction-scoped view handed to a unit of
// work function: repositories bound to the transaction plus an explicit
// Cancel. Cancel marks the transaction for rollback as a first-class
// outcome; it is not an error path being swallowed.
type RepositoryContext interface {
	Users() TxUsers
	Cancel(reason string)
}

// UnitOfWork runs a function against a transaction-scoped repository
// context. Normal return commits; an error or an explicit Cancel rolls
// back. Concurrent Execute calls use independent transactions; atomicity
// is delegated entirely to the underlying store.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos RepositoryContext) error) error
}

// UnitOfWorkImpl implements UnitOfWork on top of the repository manager's
// transaction plumbing.
type UnitOfWorkImpl struct {
	repo   RepositoryManager
	logger Logger
}

// NewUnitOfWork creates a new UnitOfWork instance.
func NewUnitOfWork(repo RepositoryManager) *UnitOfWorkImpl {
	return &UnitOfWorkImpl{
		repo:   repo,
		logger: defLogger{},
	}
}

func (u *UnitOfWorkImpl) WithLogger(logger Logger) *UnitOfWorkImpl {
	if logger != nil {
		u.logger = logger
	}
	return u
}

// Execute opens a transaction, binds the repositories to it, and runs fn.
func (u *UnitOfWorkImpl) Execute(ctx context.Context, fn func(ctx context.Context, repos RepositoryContext) error) error {
	var cancelledWith string

	err := u.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repos := &txRepositories{
			users: txUsers{users: u.repo.Users(), tx: tx},
		}

		if err := fn(ctx, repos); err != nil {
			return err
		}

		if repos.cancelled {
			cancelledWith = repos.reason
			// returning an error is what makes RunInTx roll back; the
			// sentinel is translated below so callers see the typed outcome
			return ErrTransactionCancelled
		}

		return nil
	})

	if err == nil {
		return nil
	}

	if goerrors.Is(err, ErrTransactionCancelled) {
		u.logger.Debug("unit of work cancelled", "reason", cancelledWith)
		return cancelledError(cancelledWith)
	}

	return err
}

// cancelledError builds the caller-facing rollback outcome. Cloning keeps
// the sentinel in the Source chain so goerrors.Is still matches it.
func cancelledError(reason string) error {
	clone := ErrTransactionCancelled.Clone()
	if clone == nil {
		return ErrTransactionCancelled
	}
	clone.Message = "unit of work rolled back"
	clone.Source = ErrTransactionCancelled
	return clone.WithMetadata(map[string]any{"reason": reason})
}

// ExecuteInUnitOfWork runs fn inside uow and carries a typed result across
// the commit boundary. Rollback (error or Cancel) discards the result.
func ExecuteInUnitOfWork[T any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context, repos RepositoryContext) (T, error)) (T, error) {
	var result T

	err := uow.Execute(ctx, func(ctx context.Context, repos RepositoryContext) error {
		var err error
		result, err = fn(ctx, repos)
		return err
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

type txRepositories struct {
	users     txUsers
	cancelled bool
	reason    string
}

func (t *txRepositories) Users() TxUsers {
	return t.users
}

func (t *txRepositories) Cancel(reason string) {
	t.cancelled = true
	t.reason = reason
}

// txUsers binds the users repository to one transaction.
type txUsers struct {
	users Users
	tx    bun.Tx
}

func (t txUsers) GetByID(ctx context.Context, id string) (*User, error) {
	return t.users.GetByIDTx(ctx, t.tx, id)
}

func (t txUsers) Register(ctx context.Context, user *User) (*User, error) {
	return t.users.RegisterTx(ctx, t.tx, user)
}

func (t txUsers) Update(ctx context.Context, user *User) (*User, error) {
	return t.users.UpdateTx(ctx, t.tx, user)
}

func (t txUsers) StorePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return t.users.StorePasswordTx(ctx, t.tx, id, passwordHash)
}

func (t txUsers) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return t.users.DeleteByIDTx(ctx, t.tx, id)
}

// Verify interface compliance
var (
	_ UnitOfWork        = (*UnitOfWorkImpl)(nil)
	_ RepositoryContext = (*txRepositories)(nil)
	_ TxUsers           = (txUsers{})
)
