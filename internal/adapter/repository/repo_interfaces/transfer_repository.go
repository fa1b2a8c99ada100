package repo_interfaces

import (
	"context"

	"github.com/isbank/ledger-core/internal/domain"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer domain.Transfer) (domain.Transfer, error)
	Get(ctx context.Context, id int64) (domain.Transfer, error)
	ListByStatus(ctx context.Context, status domain.TransferStatus) ([]domain.Transfer, error)

	// UpdateStatus performs one guarded state-machine move. It returns
	// domain.ErrInvalidStateTransition when the transfer is not in the
	// expected status anymore.
	UpdateStatus(ctx context.Context, id int64, from, to domain.TransferStatus, reason string) error

	// Complete executes the whole atomic unit for a processing transfer:
	// both account balances, both account ledger legs, the balanced GL
	// posting, the completed status flip, and the outbox event, in a single
	// database transaction. Account rows are locked in ascending id order.
	Complete(ctx context.Context, transfer domain.Transfer, event domain.OutboxMessage) error

	// Finalize moves a processing transfer to a terminal status and records
	// the outbox event in the same transaction. No ledger entries are
	// written; the recovery sweep uses it to promote or fail stuck
	// transfers, the engine uses it on any processing failure.
	Finalize(ctx context.Context, id int64, to domain.TransferStatus, reason string, event domain.OutboxMessage) error

	// Reverse compensates a completed transfer: the two opposite legs and
	// the reversing GL posting are written under the same lock discipline
	// and the transfer is marked reversed.
	Reverse(ctx context.Context, transfer domain.Transfer) error
}
