package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/logger"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"customerId": account.CustomerID,
		"accountNo":  account.AccountNo,
		"currency":   account.Currency,
	})

	const query = `
INSERT INTO accounts (
	customer_id,
	account_no,
	currency,
	balance,
	status
) VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`

	var (
		id        int64
		createdAt time.Time
		updatedAt time.Time
	)

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.CustomerID,
		account.AccountNo,
		account.Currency,
		account.Balance,
		account.Status,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		if isUniqueViolation(err) {
			logger.Info("account repository create duplicate account number", logger.Fields{
				"accountNo": account.AccountNo,
			})
			return domain.Account{}, domain.ErrConflict
		}
		logger.Error("account repository create failed", err, logger.Fields{
			"customerId": account.CustomerID,
		})
		return domain.Account{}, storeErr("create account", err)
	}

	account.ID = id
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt

	logger.Info("account repository create success", logger.Fields{
		"accountId": account.ID,
		"accountNo": account.AccountNo,
	})

	return account, nil
}

func (r *AccountRepository) Get(ctx context.Context, id int64) (domain.Account, error) {
	const query = `
SELECT id, customer_id, account_no, currency, balance, status, created_at, updated_at
FROM accounts
WHERE id = $1`

	var account domain.Account
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.CustomerID,
		&account.AccountNo,
		&account.Currency,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, storeErr("get account", err)
	}

	return account, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	const query = `
SELECT id, customer_id, account_no, currency, balance, status, created_at, updated_at
FROM accounts
ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("account repository list failed", err, nil)
		return nil, storeErr("list accounts", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.CustomerID,
			&account.AccountNo,
			&account.Currency,
			&account.Balance,
			&account.Status,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, storeErr("scan account row", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate account rows", err)
	}

	return accounts, nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.AccountStatus) error {
	logger.Info("account repository update status", logger.Fields{
		"accountId": id,
		"from":      from,
		"to":        to,
	})

	const query = `
UPDATE accounts
SET status = $3,
    updated_at = NOW()
WHERE id = $1
  AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		logger.Error("account repository update status failed", err, logger.Fields{
			"accountId": id,
		})
		return storeErr("update account status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("update account status rows affected", err)
	}
	if rowsAffected == 0 {
		// The account left the expected status between the caller's read and
		// this write.
		return domain.ErrInvalidStateTransition
	}

	logger.Info("account repository update status success", logger.Fields{
		"accountId": id,
		"status":    to,
	})
	return nil
}
