package postgres

import (
	"context"
	"database/sql"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/logger"
	"github.com/shopspring/decimal"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const selectAccountForPosting = `
SELECT balance, status, currency
FROM accounts
WHERE id = $1
FOR UPDATE`

const updateAccountBalance = `
UPDATE accounts
SET balance = $2,
    updated_at = NOW()
WHERE id = $1`

const insertLedgerEntry = `
INSERT INTO account_ledger (
	account_id,
	transaction_id,
	direction,
	amount,
	balance_after
) VALUES ($1, $2, $3, $4, $5)
RETURNING id, occurred_at`

func (r *LedgerRepository) AppendEntry(ctx context.Context, accountID int64, direction domain.Direction, amount decimal.Decimal, transactionID string) (domain.LedgerEntry, error) {
	logger.Info("ledger repository append entry", logger.Fields{
		"accountId":     accountID,
		"direction":     direction,
		"amount":        amount,
		"transactionId": transactionID,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("ledger repository begin tx failed", err, nil)
		return domain.LedgerEntry{}, storeErr("begin append entry transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var entry domain.LedgerEntry
	entry, err = appendEntryTx(ctx, tx, accountID, direction, amount, transactionID)
	if err != nil {
		if isUniqueViolation(err) {
			// Leg already posted under this transaction id; the original
			// write stands and the duplicate is answered with it.
			_ = tx.Rollback()
			existing, getErr := r.getEntry(ctx, accountID, direction, transactionID)
			if getErr != nil {
				return domain.LedgerEntry{}, getErr
			}
			err = nil
			logger.Info("ledger repository append entry idempotent replay", logger.Fields{
				"accountId":     accountID,
				"transactionId": transactionID,
			})
			return existing, nil
		}
		return domain.LedgerEntry{}, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("ledger repository commit failed", err, logger.Fields{
			"accountId": accountID,
		})
		return domain.LedgerEntry{}, storeErr("commit append entry transaction", err)
	}

	logger.Info("ledger repository append entry success", logger.Fields{
		"entryId":      entry.ID,
		"accountId":    accountID,
		"balanceAfter": entry.BalanceAfter,
	})

	return entry, nil
}

// lockedAccount is an account row held FOR UPDATE inside an open
// transaction. Holding the row serializes every balance mutation on the
// account until the transaction ends.
type lockedAccount struct {
	id       int64
	balance  decimal.Decimal
	status   domain.AccountStatus
	currency string
}

func lockAccountTx(ctx context.Context, tx *sql.Tx, accountID int64) (lockedAccount, error) {
	locked := lockedAccount{id: accountID}
	if err := tx.QueryRowContext(ctx, selectAccountForPosting, accountID).Scan(
		&locked.balance,
		&locked.status,
		&locked.currency,
	); err != nil {
		if err == sql.ErrNoRows {
			return lockedAccount{}, domain.ErrAccountNotFound
		}
		return lockedAccount{}, storeErr("lock account for posting", err)
	}
	return locked, nil
}

func (a lockedAccount) requireActive() error {
	switch a.status {
	case domain.AccountStatusActive:
		return nil
	case domain.AccountStatusFrozen:
		return domain.ErrAccountFrozen
	default:
		return domain.ErrAccountClosed
	}
}

// postLegTx moves the cached balance and writes the entry for one leg. The
// caller must already hold the account row lock and have validated status
// and funds.
func postLegTx(ctx context.Context, tx *sql.Tx, accountID int64, direction domain.Direction, amount, balanceAfter decimal.Decimal, transactionID string) (domain.LedgerEntry, error) {
	if _, err := tx.ExecContext(ctx, updateAccountBalance, accountID, balanceAfter); err != nil {
		return domain.LedgerEntry{}, storeErr("update account balance", err)
	}

	entry := domain.LedgerEntry{
		AccountID:     accountID,
		TransactionID: transactionID,
		Direction:     direction,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
	}
	if err := tx.QueryRowContext(
		ctx,
		insertLedgerEntry,
		accountID,
		transactionID,
		direction,
		amount,
		balanceAfter,
	).Scan(&entry.ID, &entry.OccurredAt); err != nil {
		if isUniqueViolation(err) {
			return domain.LedgerEntry{}, err
		}
		return domain.LedgerEntry{}, storeErr("insert ledger entry", err)
	}

	return entry, nil
}

// appendEntryTx applies one leg inside an open transaction: lock the account
// row, enforce status and funds, move the balance, write the entry.
func appendEntryTx(ctx context.Context, tx *sql.Tx, accountID int64, direction domain.Direction, amount decimal.Decimal, transactionID string) (domain.LedgerEntry, error) {
	locked, err := lockAccountTx(ctx, tx, accountID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if err := locked.requireActive(); err != nil {
		return domain.LedgerEntry{}, err
	}

	balanceAfter := locked.balance.Add(direction.Signed(amount))
	if direction == domain.DirectionDebit && balanceAfter.IsNegative() {
		return domain.LedgerEntry{}, domain.ErrInsufficientFunds
	}

	return postLegTx(ctx, tx, accountID, direction, amount, balanceAfter, transactionID)
}

func (r *LedgerRepository) getEntry(ctx context.Context, accountID int64, direction domain.Direction, transactionID string) (domain.LedgerEntry, error) {
	const query = `
SELECT id, account_id, transaction_id, direction, amount, balance_after, occurred_at
FROM account_ledger
WHERE account_id = $1
  AND transaction_id = $2
  AND direction = $3`

	var entry domain.LedgerEntry
	if err := r.db.QueryRowContext(ctx, query, accountID, transactionID, direction).Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.TransactionID,
		&entry.Direction,
		&entry.Amount,
		&entry.BalanceAfter,
		&entry.OccurredAt,
	); err != nil {
		return domain.LedgerEntry{}, storeErr("get ledger entry", err)
	}
	return entry, nil
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, error) {
	const query = `
SELECT id, account_id, transaction_id, direction, amount, balance_after, occurred_at
FROM account_ledger
WHERE account_id = $1
ORDER BY occurred_at, id
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		logger.Error("ledger repository list failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, storeErr("list ledger entries", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.TransactionID,
			&entry.Direction,
			&entry.Amount,
			&entry.BalanceAfter,
			&entry.OccurredAt,
		); err != nil {
			return nil, storeErr("scan ledger entry row", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate ledger entry rows", err)
	}

	return entries, nil
}

func (r *LedgerRepository) CountByTransaction(ctx context.Context, transactionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM account_ledger WHERE transaction_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, transactionID).Scan(&count); err != nil {
		return 0, storeErr("count ledger entries by transaction", err)
	}
	return count, nil
}

func (r *LedgerRepository) SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	const query = `
SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)
FROM account_ledger
WHERE account_id = $1`

	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Decimal{}, storeErr("sum ledger entries", err)
	}
	return sum, nil
}
