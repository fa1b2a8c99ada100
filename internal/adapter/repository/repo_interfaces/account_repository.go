package repo_interfaces

import (
	"context"

	"github.com/isbank/ledger-core/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)

	// UpdateStatus moves an account from one status to another. It returns
	// domain.ErrInvalidStateTransition when the account is no longer in the
	// expected status, so racing freeze/unfreeze calls surface the loss.
	UpdateStatus(ctx context.Context, id int64, from, to domain.AccountStatus) error
}
