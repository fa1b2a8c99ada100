package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/isbank/ledger-core/internal/adapter/http/models"
	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(store *memStore) *services.AccountService {
	return services.NewAccountService(store, store, []string{"USD", "EUR", "CNY"})
}

func TestAccountServiceCreateAccount(t *testing.T) {
	store := newMemStore()
	svc := newAccountService(store)

	response, err := svc.CreateAccount(context.Background(), models.CreateAccountRequest{
		CustomerID: "cust-1",
		Currency:   "usd",
	})

	require.NoError(t, err)
	require.True(t, response.Success)
	require.NotNil(t, response.Data)
	assert.Equal(t, "active", response.Data.Status)
	assert.Equal(t, "USD", response.Data.Currency)
	assert.True(t, strings.HasPrefix(response.Data.AccountNo, "ACC"))
	assert.True(t, response.Data.Balance.IsZero())
}

func TestAccountServiceCreateAccountValidationError(t *testing.T) {
	svc := newAccountService(newMemStore())

	_, err := svc.CreateAccount(context.Background(), models.CreateAccountRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAccountServiceCreateAccountUnsupportedCurrency(t *testing.T) {
	svc := newAccountService(newMemStore())

	_, err := svc.CreateAccount(context.Background(), models.CreateAccountRequest{
		CustomerID: "cust-1",
		Currency:   "GBP",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
}

func TestAccountServiceFreezeUnfreeze(t *testing.T) {
	store := newMemStore()
	account := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newAccountService(store)

	frozen, err := svc.FreezeAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "frozen", frozen.Data.Status)

	// A second freeze is an operator mistake, not a no-op.
	_, err = svc.FreezeAccount(context.Background(), account.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	active, err := svc.UnfreezeAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", active.Data.Status)
}

func TestAccountServiceFreezeUnknownAccount(t *testing.T) {
	svc := newAccountService(newMemStore())

	_, err := svc.FreezeAccount(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountServiceUnfreezeActiveAccount(t *testing.T) {
	store := newMemStore()
	account := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newAccountService(store)

	_, err := svc.UnfreezeAccount(context.Background(), account.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestAccountServiceGetLedgerUnknownAccount(t *testing.T) {
	svc := newAccountService(newMemStore())

	_, err := svc.GetLedger(context.Background(), 42, 0, 0)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountServiceGetLedger(t *testing.T) {
	store := newMemStore()
	account := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newAccountService(store)

	_, err := store.AppendEntry(context.Background(), account.ID, domain.DirectionCredit, decimal.RequireFromString("100.00"), "tx-1")
	require.NoError(t, err)
	_, err = store.AppendEntry(context.Background(), account.ID, domain.DirectionDebit, decimal.RequireFromString("30.00"), "tx-2")
	require.NoError(t, err)

	response, err := svc.GetLedger(context.Background(), account.ID, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, response.Data)
	require.Len(t, *response.Data, 2)
	assert.Equal(t, "credit", (*response.Data)[0].Direction)
	assert.Equal(t, "debit", (*response.Data)[1].Direction)
	assert.True(t, (*response.Data)[1].BalanceAfter.Equal(decimal.RequireFromString("70.00")))
}

func TestAccountServicePostingCurrencyMismatch(t *testing.T) {
	store := newMemStore()
	account := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newAccountService(store)

	_, err := svc.CreditAccount(context.Background(), models.PostingRequest{
		AccountID:     account.ID,
		TransactionID: "ext-1",
		Amount:        decimal.RequireFromString("10.00"),
		Currency:      "EUR",
	})
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestAccountServicePostingIdempotentReplay(t *testing.T) {
	store := newMemStore()
	account := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newAccountService(store)

	req := models.PostingRequest{
		AccountID:     account.ID,
		TransactionID: "ext-1",
		Amount:        decimal.RequireFromString("10.00"),
		Currency:      "USD",
	}

	first, err := svc.CreditAccount(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.CreditAccount(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Data.ID, second.Data.ID)

	// The replay did not move the balance again.
	updated, _ := store.Get(context.Background(), account.ID)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("10.00")))
}

func TestAccountServiceDebitInsufficientFunds(t *testing.T) {
	store := newMemStore()
	account := store.seedAccount("USD", "5.00", domain.AccountStatusActive)
	svc := newAccountService(store)

	_, err := svc.DebitAccount(context.Background(), models.PostingRequest{
		AccountID:     account.ID,
		TransactionID: "ext-1",
		Amount:        decimal.RequireFromString("10.00"),
		Currency:      "USD",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestAccountServiceListAccounts(t *testing.T) {
	store := newMemStore()
	store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	store.seedAccount("EUR", "0.00", domain.AccountStatusFrozen)
	svc := newAccountService(store)

	response, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, response.Data)
	require.Len(t, *response.Data, 2)
	assert.Equal(t, "frozen", (*response.Data)[1].Status)
}
