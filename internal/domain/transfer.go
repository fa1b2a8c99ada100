package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferStatusPending    TransferStatus = "pending"
	TransferStatusProcessing TransferStatus = "processing"
	TransferStatusCompleted  TransferStatus = "completed"
	TransferStatusFailed     TransferStatus = "failed"
	TransferStatusReversed   TransferStatus = "reversed"
)

func ParseTransferStatus(value string) (TransferStatus, error) {
	switch TransferStatus(value) {
	case TransferStatusPending, TransferStatusProcessing, TransferStatusCompleted,
		TransferStatusFailed, TransferStatusReversed:
		return TransferStatus(value), nil
	}
	return "", ErrInvalidTransferStatus
}

// Terminal reports whether no further status transition is permitted.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferStatusCompleted, TransferStatusFailed, TransferStatusReversed:
		return true
	}
	return false
}

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferStatusPending:    {TransferStatusProcessing},
	TransferStatusProcessing: {TransferStatusCompleted, TransferStatusFailed},
	TransferStatusCompleted:  {TransferStatusReversed},
}

// CanTransition reports whether the transfer state machine permits moving
// from one status to another.
func (s TransferStatus) CanTransition(to TransferStatus) bool {
	for _, next := range transferTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type TransferType string

const (
	TransferTypeInternal TransferType = "internal"
	TransferTypeExternal TransferType = "external"
)

func ParseTransferType(value string) (TransferType, error) {
	switch TransferType(value) {
	case TransferTypeInternal, TransferTypeExternal:
		return TransferType(value), nil
	}
	return "", ErrInvalidTransferType
}

// Transfer is a two-leg money movement between two accounts. It carries no
// money itself: the ledger entries written under its transaction id are the
// durable record, the transfer row only tracks orchestration status.
type Transfer struct {
	ID            int64
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
	Currency      string
	Type          TransferType
	Status        TransferStatus
	FailureReason string
	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// TransactionID is the ledger transaction id for the transfer's own legs.
// The tfr prefix keeps transfer legs out of the namespace of caller-supplied
// transaction ids on the internal posting endpoints.
func (t Transfer) TransactionID() string {
	return "tfr-" + strconv.FormatInt(t.ID, 10)
}

// ReversalTransactionID is the transaction id for the compensating legs, so
// the original entries stay untouched.
func (t Transfer) ReversalTransactionID() string {
	return t.TransactionID() + "-rev"
}
