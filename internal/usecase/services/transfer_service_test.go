package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/isbank/ledger-core/internal/adapter/http/models"
	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransferService(store *memStore) *services.TransferService {
	risk := services.NewRiskService(store, decimal.RequireFromString("50000.00"))
	return services.NewTransferService(transferRepo{store}, store, store, risk)
}

func TestCreateTransferCompletes(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	to := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	response, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
	})

	require.NoError(t, err)
	require.True(t, response.Success)
	require.NotNil(t, response.Data)
	assert.Equal(t, "completed", response.Data.Status)
	assert.Equal(t, "internal", response.Data.Type)

	fromEntries := store.entriesFor(from.ID)
	toEntries := store.entriesFor(to.ID)
	require.Len(t, fromEntries, 1)
	require.Len(t, toEntries, 1)
	assert.Equal(t, domain.DirectionDebit, fromEntries[0].Direction)
	assert.Equal(t, domain.DirectionCredit, toEntries[0].Direction)

	fromAccount, _ := store.Get(context.Background(), from.ID)
	toAccount, _ := store.Get(context.Background(), to.ID)
	assert.True(t, fromAccount.Balance.Equal(decimal.RequireFromString("400.00")))
	assert.True(t, toAccount.Balance.Equal(decimal.RequireFromString("100.00")))

	require.Len(t, store.events, 1)
	assert.Equal(t, domain.EventTransferCompleted, store.events[0].EventType)

	// The destination opened at zero, so its balance equals the replayed
	// ledger sum.
	sum, _ := store.SumByAccount(context.Background(), to.ID)
	assert.True(t, sum.Equal(toAccount.Balance))
}

func TestCreateTransferInsufficientFunds(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "50.00", domain.AccountStatusActive)
	to := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	_, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	transfer, getErr := store.GetTransfer(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TransferStatusFailed, transfer.Status)
	assert.NotEmpty(t, transfer.FailureReason)

	// No money moved on either side.
	assert.Empty(t, store.entriesFor(from.ID))
	assert.Empty(t, store.entriesFor(to.ID))
	require.Len(t, store.events, 1)
	assert.Equal(t, domain.EventTransferFailed, store.events[0].EventType)
}

func TestCreateTransferFrozenSource(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "500.00", domain.AccountStatusFrozen)
	to := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	_, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
	})

	assert.ErrorIs(t, err, domain.ErrAccountFrozen)

	transfer, getErr := store.GetTransfer(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TransferStatusFailed, transfer.Status)
	assert.Empty(t, store.entriesFor(from.ID))
	assert.Empty(t, store.entriesFor(to.ID))
}

func TestCreateTransferCurrencyMismatch(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	to := store.seedAccount("EUR", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	_, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
	})

	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	transfer, getErr := store.GetTransfer(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TransferStatusFailed, transfer.Status)
}

func TestCreateTransferRiskDenied(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "100000.00", domain.AccountStatusActive)
	to := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	_, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("60000.00"),
		Currency:      "USD",
	})

	assert.Error(t, err)

	transfer, getErr := store.GetTransfer(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TransferStatusFailed, transfer.Status)
	assert.Equal(t, "risk rejected: AMOUNT_LIMIT", transfer.FailureReason)
	assert.Empty(t, store.entriesFor(from.ID))

	require.Len(t, store.decisions, 1)
	assert.Equal(t, domain.RiskResultDeny, store.decisions[0].Result)
}

func TestCreateTransferValidation(t *testing.T) {
	store := newMemStore()
	svc := newTransferService(store)

	_, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: 1,
		ToAccountID:   1,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, store.transfers)
}

func TestCreateTransferUnknownAccount(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	_, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   99,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
	})

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Empty(t, store.transfers)
}

func TestReverseTransferRestoresBalances(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	to := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	created, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
	})
	require.NoError(t, err)

	response, err := svc.ReverseTransfer(context.Background(), created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "reversed", response.Data.Status)

	fromAccount, _ := store.Get(context.Background(), from.ID)
	toAccount, _ := store.Get(context.Background(), to.ID)
	assert.True(t, fromAccount.Balance.Equal(decimal.RequireFromString("500.00")))
	assert.True(t, toAccount.Balance.Equal(decimal.RequireFromString("0.00")))

	// Original entries stay untouched; compensation adds two more.
	assert.Len(t, store.entriesFor(from.ID), 2)
	assert.Len(t, store.entriesFor(to.ID), 2)
}

func TestReverseTransferRequiresCompleted(t *testing.T) {
	store := newMemStore()
	store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	_, err := transferRepo{store}.Create(context.Background(), domain.Transfer{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        decimal.RequireFromString("10.00"),
		Currency:      "USD",
		Type:          domain.TransferTypeInternal,
		Status:        domain.TransferStatusPending,
	})
	require.NoError(t, err)

	_, err = svc.ReverseTransfer(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestRecoverStuckTransfersPromotesWhenLegsDurable(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	to := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	stuck, err := transferRepo{store}.Create(context.Background(), domain.Transfer{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
		Type:          domain.TransferTypeInternal,
		Status:        domain.TransferStatusProcessing,
	})
	require.NoError(t, err)

	// Both legs committed before the crash; only the status flip was lost.
	_, err = store.AppendEntry(context.Background(), from.ID, domain.DirectionDebit, stuck.Amount, stuck.TransactionID())
	require.NoError(t, err)
	_, err = store.AppendEntry(context.Background(), to.ID, domain.DirectionCredit, stuck.Amount, stuck.TransactionID())
	require.NoError(t, err)

	require.NoError(t, svc.RecoverStuckTransfers(context.Background()))

	recovered, err := store.GetTransfer(context.Background(), stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusCompleted, recovered.Status)

	require.Len(t, store.events, 1)
	assert.Equal(t, domain.EventTransferCompleted, store.events[0].EventType)
}

func TestRecoverStuckTransfersFailsWithoutLegs(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	to := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	stuck, err := transferRepo{store}.Create(context.Background(), domain.Transfer{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
		Type:          domain.TransferTypeInternal,
		Status:        domain.TransferStatusProcessing,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RecoverStuckTransfers(context.Background()))

	recovered, err := store.GetTransfer(context.Background(), stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusFailed, recovered.Status)
	assert.Equal(t, "recovery", recovered.FailureReason)
	assert.Empty(t, store.entriesFor(from.ID))
}

func TestConcurrentOppositeTransfersBothComplete(t *testing.T) {
	store := newMemStore()
	a := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	b := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	requests := []models.CreateTransferRequest{
		{FromAccountID: a.ID, ToAccountID: b.ID, Amount: decimal.RequireFromString("120.00"), Currency: "USD"},
		{FromAccountID: b.ID, ToAccountID: a.ID, Amount: decimal.RequireFromString("80.00"), Currency: "USD"},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(requests))
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateTransfer(context.Background(), requests[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "transfer %d", i)
	}
	for id := int64(1); id <= 2; id++ {
		transfer, err := store.GetTransfer(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.TransferStatusCompleted, transfer.Status)
	}

	// Both effects land regardless of submission order.
	accountA, _ := store.Get(context.Background(), a.ID)
	accountB, _ := store.Get(context.Background(), b.ID)
	assert.True(t, accountA.Balance.Equal(decimal.RequireFromString("460.00")), accountA.Balance.String())
	assert.True(t, accountB.Balance.Equal(decimal.RequireFromString("540.00")), accountB.Balance.String())

	for _, id := range []int64{a.ID, b.ID} {
		require.Len(t, store.entriesFor(id), 2)
		sum, _ := store.SumByAccount(context.Background(), id)
		account, _ := store.Get(context.Background(), id)
		assert.True(t, account.Balance.Sub(decimal.RequireFromString("500.00")).Equal(sum))
	}
}

func TestTransferLegsDoNotCollideWithCallerTransactionIDs(t *testing.T) {
	store := newMemStore()
	from := store.seedAccount("USD", "500.00", domain.AccountStatusActive)
	to := store.seedAccount("USD", "0.00", domain.AccountStatusActive)
	svc := newTransferService(store)

	// A caller already posted to the destination under the bare id the
	// first transfer will be assigned.
	_, err := store.AppendEntry(context.Background(), to.ID, domain.DirectionCredit, decimal.RequireFromString("25.00"), "1")
	require.NoError(t, err)

	response, err := svc.CreateTransfer(context.Background(), models.CreateTransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", response.Data.Status)

	// The transfer's credit leg is a fresh entry, not a replay of the
	// caller's posting.
	toEntries := store.entriesFor(to.ID)
	require.Len(t, toEntries, 2)
	assert.NotEqual(t, toEntries[0].TransactionID, toEntries[1].TransactionID)

	toAccount, _ := store.Get(context.Background(), to.ID)
	assert.True(t, toAccount.Balance.Equal(decimal.RequireFromString("125.00")))
}

func TestGetTransferNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTransferService(store)

	_, err := svc.GetTransfer(context.Background(), 77)
	assert.ErrorIs(t, err, domain.ErrTransferNotFound)
}
