package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/logger"
	"github.com/shopspring/decimal"
)

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, transfer domain.Transfer) (domain.Transfer, error) {
	logger.Info("transfer repository create", logger.Fields{
		"fromAccountId": transfer.FromAccountID,
		"toAccountId":   transfer.ToAccountID,
		"amount":        transfer.Amount,
		"currency":      transfer.Currency,
		"type":          transfer.Type,
	})

	const query = `
INSERT INTO transfers (
	from_account_id,
	to_account_id,
	amount,
	currency,
	type,
	status
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, last_updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		transfer.FromAccountID,
		transfer.ToAccountID,
		transfer.Amount,
		transfer.Currency,
		transfer.Type,
		transfer.Status,
	).Scan(&transfer.ID, &transfer.CreatedAt, &transfer.LastUpdatedAt); err != nil {
		logger.Error("transfer repository create failed", err, logger.Fields{
			"fromAccountId": transfer.FromAccountID,
		})
		return domain.Transfer{}, storeErr("create transfer", err)
	}

	logger.Info("transfer repository create success", logger.Fields{
		"transferId": transfer.ID,
		"status":     transfer.Status,
	})

	return transfer, nil
}

func (r *TransferRepository) Get(ctx context.Context, id int64) (domain.Transfer, error) {
	const query = `
SELECT id, from_account_id, to_account_id, amount, currency, type, status, failure_reason, created_at, last_updated_at
FROM transfers
WHERE id = $1`

	var (
		transfer domain.Transfer
		reason   sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&transfer.ID,
		&transfer.FromAccountID,
		&transfer.ToAccountID,
		&transfer.Amount,
		&transfer.Currency,
		&transfer.Type,
		&transfer.Status,
		&reason,
		&transfer.CreatedAt,
		&transfer.LastUpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Transfer{}, domain.ErrTransferNotFound
		}
		logger.Error("transfer repository get failed", err, logger.Fields{
			"transferId": id,
		})
		return domain.Transfer{}, storeErr("get transfer", err)
	}

	if reason.Valid {
		transfer.FailureReason = reason.String
	}

	return transfer, nil
}

func (r *TransferRepository) ListByStatus(ctx context.Context, status domain.TransferStatus) ([]domain.Transfer, error) {
	const query = `
SELECT id, from_account_id, to_account_id, amount, currency, type, status, failure_reason, created_at, last_updated_at
FROM transfers
WHERE status = $1
ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		logger.Error("transfer repository list by status failed", err, logger.Fields{
			"status": status,
		})
		return nil, storeErr("list transfers by status", err)
	}
	defer rows.Close()

	transfers := make([]domain.Transfer, 0)
	for rows.Next() {
		var (
			transfer domain.Transfer
			reason   sql.NullString
		)
		if err := rows.Scan(
			&transfer.ID,
			&transfer.FromAccountID,
			&transfer.ToAccountID,
			&transfer.Amount,
			&transfer.Currency,
			&transfer.Type,
			&transfer.Status,
			&reason,
			&transfer.CreatedAt,
			&transfer.LastUpdatedAt,
		); err != nil {
			return nil, storeErr("scan transfer row", err)
		}
		if reason.Valid {
			transfer.FailureReason = reason.String
		}
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate transfer rows", err)
	}

	return transfers, nil
}

const updateTransferStatus = `
UPDATE transfers
SET status = $3,
    failure_reason = NULLIF($4, ''),
    last_updated_at = NOW()
WHERE id = $1
  AND status = $2`

func (r *TransferRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.TransferStatus, reason string) error {
	logger.Info("transfer repository update status", logger.Fields{
		"transferId": id,
		"from":       from,
		"to":         to,
	})

	result, err := r.db.ExecContext(ctx, updateTransferStatus, id, from, to, reason)
	if err != nil {
		logger.Error("transfer repository update status failed", err, logger.Fields{
			"transferId": id,
		})
		return storeErr("update transfer status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("update transfer status rows affected", err)
	}
	if rowsAffected == 0 {
		return domain.ErrInvalidStateTransition
	}

	return nil
}

func (r *TransferRepository) Complete(ctx context.Context, transfer domain.Transfer, event domain.OutboxMessage) error {
	logger.Info("transfer repository complete", logger.Fields{
		"transferId":    transfer.ID,
		"fromAccountId": transfer.FromAccountID,
		"toAccountId":   transfer.ToAccountID,
		"amount":        transfer.Amount,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("transfer repository begin tx failed", err, nil)
		return storeErr("begin transfer transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	transactionID := transfer.TransactionID()

	err = postTwoLegsTx(ctx, tx, transfer.FromAccountID, transfer.ToAccountID, transfer.Amount, transfer.Currency, transactionID)
	if err != nil {
		return err
	}

	amount := transfer.Amount
	err = postGLEntriesTx(ctx, tx, transactionID, []domain.GLPosting{
		{GLAccountCode: domain.GLAccountCash, DebitAmount: &amount},
		{GLAccountCode: domain.GLAccountCustomerDeposit, CreditAmount: &amount},
	})
	if err != nil {
		return err
	}

	err = updateStatusTx(ctx, tx, transfer.ID, domain.TransferStatusProcessing, domain.TransferStatusCompleted, "")
	if err != nil {
		return err
	}

	err = insertOutboxMessageTx(ctx, tx, event)
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transfer repository commit tx failed", err, logger.Fields{
			"transferId": transfer.ID,
		})
		return storeErr("commit transfer transaction", err)
	}

	logger.Info("transfer repository complete success", logger.Fields{
		"transferId": transfer.ID,
	})
	return nil
}

func (r *TransferRepository) Finalize(ctx context.Context, id int64, to domain.TransferStatus, reason string, event domain.OutboxMessage) error {
	logger.Info("transfer repository finalize", logger.Fields{
		"transferId": id,
		"to":         to,
		"reason":     reason,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin finalize transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = updateStatusTx(ctx, tx, id, domain.TransferStatusProcessing, to, reason)
	if err != nil {
		return err
	}

	err = insertOutboxMessageTx(ctx, tx, event)
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return storeErr("commit finalize transaction", err)
	}

	return nil
}

func (r *TransferRepository) Reverse(ctx context.Context, transfer domain.Transfer) error {
	logger.Info("transfer repository reverse", logger.Fields{
		"transferId": transfer.ID,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin reverse transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// The compensating legs run in the opposite direction under a distinct
	// transaction id.
	transactionID := transfer.ReversalTransactionID()

	err = postTwoLegsTx(ctx, tx, transfer.ToAccountID, transfer.FromAccountID, transfer.Amount, transfer.Currency, transactionID)
	if err != nil {
		return err
	}

	amount := transfer.Amount
	err = postGLEntriesTx(ctx, tx, transactionID, []domain.GLPosting{
		{GLAccountCode: domain.GLAccountCustomerDeposit, DebitAmount: &amount},
		{GLAccountCode: domain.GLAccountCash, CreditAmount: &amount},
	})
	if err != nil {
		return err
	}

	err = updateStatusTx(ctx, tx, transfer.ID, domain.TransferStatusCompleted, domain.TransferStatusReversed, "")
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return storeErr("commit reverse transaction", err)
	}

	logger.Info("transfer repository reverse success", logger.Fields{
		"transferId": transfer.ID,
	})
	return nil
}

// postTwoLegsTx writes the debit and credit legs of a movement inside one
// open transaction. Account rows are locked in ascending id order regardless
// of which side is debited, so transfers touching the same pair from
// opposite directions cannot deadlock.
func postTwoLegsTx(ctx context.Context, tx *sql.Tx, debitAccountID, creditAccountID int64, amount decimal.Decimal, currency, transactionID string) error {
	lockOrder := []int64{debitAccountID, creditAccountID}
	if creditAccountID < debitAccountID {
		lockOrder = []int64{creditAccountID, debitAccountID}
	}

	locked := make(map[int64]lockedAccount, 2)
	for _, accountID := range lockOrder {
		account, err := lockAccountTx(ctx, tx, accountID)
		if err != nil {
			return err
		}
		locked[accountID] = account
	}

	debitAccount := locked[debitAccountID]
	creditAccount := locked[creditAccountID]

	for _, account := range []lockedAccount{debitAccount, creditAccount} {
		if err := account.requireActive(); err != nil {
			return err
		}
		if !strings.EqualFold(account.currency, currency) {
			return domain.ErrCurrencyMismatch
		}
	}

	debitAfter := debitAccount.balance.Sub(amount)
	if debitAfter.IsNegative() {
		return domain.ErrInsufficientFunds
	}
	creditAfter := creditAccount.balance.Add(amount)

	if _, err := postLegTx(ctx, tx, debitAccountID, domain.DirectionDebit, amount, debitAfter, transactionID); err != nil {
		return err
	}
	if _, err := postLegTx(ctx, tx, creditAccountID, domain.DirectionCredit, amount, creditAfter, transactionID); err != nil {
		return err
	}

	return nil
}

// postGLEntriesTx writes a balanced double-entry posting to the general
// ledger. Total debits must equal total credits.
func postGLEntriesTx(ctx context.Context, tx *sql.Tx, transactionID string, postings []domain.GLPosting) error {
	const selectGLAccount = `SELECT id, code, name, type FROM gl_accounts WHERE code = $1`
	const insertGLEntry = `
INSERT INTO gl_entries (
	transaction_id,
	gl_account_id,
	debit_amount,
	credit_amount
) VALUES ($1, $2, $3, $4)`

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, posting := range postings {
		if posting.DebitAmount != nil {
			totalDebit = totalDebit.Add(*posting.DebitAmount)
		}
		if posting.CreditAmount != nil {
			totalCredit = totalCredit.Add(*posting.CreditAmount)
		}
	}
	if !totalDebit.Equal(totalCredit) {
		return fmt.Errorf("unbalanced gl posting: debit=%s credit=%s", totalDebit, totalCredit)
	}

	for _, posting := range postings {
		var glAccount domain.GLAccount
		if err := tx.QueryRowContext(ctx, selectGLAccount, posting.GLAccountCode).Scan(
			&glAccount.ID,
			&glAccount.Code,
			&glAccount.Name,
			&glAccount.Type,
		); err != nil {
			return storeErr("lookup gl account "+posting.GLAccountCode, err)
		}

		entry := domain.GLEntry{
			TransactionID: transactionID,
			GLAccountID:   glAccount.ID,
			DebitAmount:   posting.DebitAmount,
			CreditAmount:  posting.CreditAmount,
		}
		if _, err := tx.ExecContext(
			ctx,
			insertGLEntry,
			entry.TransactionID,
			entry.GLAccountID,
			entry.DebitAmount,
			entry.CreditAmount,
		); err != nil {
			return storeErr("insert gl entry", err)
		}
	}

	return nil
}

func updateStatusTx(ctx context.Context, tx *sql.Tx, id int64, from, to domain.TransferStatus, reason string) error {
	result, err := tx.ExecContext(ctx, updateTransferStatus, id, from, to, reason)
	if err != nil {
		return storeErr("update transfer status", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("update transfer status rows affected", err)
	}
	if rowsAffected == 0 {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

func insertOutboxMessageTx(ctx context.Context, tx *sql.Tx, message domain.OutboxMessage) error {
	const query = `
INSERT INTO transfer_outbox (
	id,
	transfer_id,
	event_type,
	payload,
	status
) VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.ExecContext(
		ctx,
		query,
		message.ID,
		message.TransferID,
		message.EventType,
		message.Payload,
		message.Status,
	); err != nil {
		return storeErr("insert outbox message", err)
	}
	return nil
}
