package service_interfaces

import (
	"context"

	"github.com/isbank/ledger-core/internal/adapter/http/models"
	"github.com/isbank/ledger-core/internal/commons"
)

type AccountService interface {
	CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error)
	GetAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error)
	ListAccounts(ctx context.Context) (commons.Response[[]models.AccountResponse], error)
	GetLedger(ctx context.Context, accountID int64, limit, offset int) (commons.Response[[]models.LedgerEntryResponse], error)
	FreezeAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error)
	UnfreezeAccount(ctx context.Context, id int64) (commons.Response[models.AccountResponse], error)

	// DebitAccount and CreditAccount post one ledger leg each. They back the
	// channel-authenticated internal endpoints and are idempotent per
	// (accountId, transactionId, direction).
	DebitAccount(ctx context.Context, req models.PostingRequest) (commons.Response[models.LedgerEntryResponse], error)
	CreditAccount(ctx context.Context, req models.PostingRequest) (commons.Response[models.LedgerEntryResponse], error)
}
