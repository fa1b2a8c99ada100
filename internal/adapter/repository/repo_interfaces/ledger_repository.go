package repo_interfaces

import (
	"context"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/shopspring/decimal"
)

type LedgerRepository interface {
	// AppendEntry atomically applies one signed balance change and records
	// the entry: the balance update and the insert commit together or not at
	// all. Re-posting the same (account, transaction, direction) returns the
	// already-written entry.
	AppendEntry(ctx context.Context, accountID int64, direction domain.Direction, amount decimal.Decimal, transactionID string) (domain.LedgerEntry, error)

	// ListByAccount returns entries ordered by occurrence time then id,
	// ascending, so pagination is restartable.
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, error)

	// CountByTransaction reports how many legs of a transaction are durable;
	// the recovery sweep uses it to resolve stuck transfers.
	CountByTransaction(ctx context.Context, transactionID string) (int, error)

	// SumByAccount replays the ledger into a balance, for drift checks
	// against the cached account balance.
	SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error)
}
