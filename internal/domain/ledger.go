package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

func ParseDirection(value string) (Direction, error) {
	switch Direction(value) {
	case DirectionDebit, DirectionCredit:
		return Direction(value), nil
	}
	return "", ErrInvalidDirection
}

// Signed returns the amount with the sign the direction applies to a balance:
// positive for a credit, negative for a debit.
func (d Direction) Signed(amount decimal.Decimal) decimal.Decimal {
	if d == DirectionDebit {
		return amount.Neg()
	}
	return amount
}

// LedgerEntry is one immutable signed balance change on one account.
// Entries are append-only; BalanceAfter is the account balance immediately
// after the entry was applied.
type LedgerEntry struct {
	ID            int64
	AccountID     int64
	TransactionID string
	Direction     Direction
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	OccurredAt    time.Time
}
