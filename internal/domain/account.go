package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
	AccountStatusClosed AccountStatus = "closed"
)

func ParseAccountStatus(value string) (AccountStatus, error) {
	switch AccountStatus(value) {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed:
		return AccountStatus(value), nil
	}
	return "", ErrInvalidAccountStatus
}

// Account is a customer money account. Balance is a cached projection of the
// account's ledger entries; it is only mutated in the same transaction that
// appends an entry, so it can always be rebuilt by replaying the ledger.
type Account struct {
	ID         int64
	CustomerID string
	AccountNo  string
	Currency   string
	Balance    decimal.Decimal
	Status     AccountStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
