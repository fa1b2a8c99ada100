package domain

import "time"

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusPublished OutboxStatus = "PUBLISHED"
)

const (
	EventTransferCompleted = "transfer.completed"
	EventTransferFailed    = "transfer.failed"
)

// OutboxMessage is a transfer event written in the same transaction that
// finalized the transfer, published to the broker by the outbox processor.
type OutboxMessage struct {
	ID         string
	TransferID int64
	EventType  string
	Payload    []byte
	Status     OutboxStatus
	CreatedAt  time.Time
}

// TransferEvent is the payload published for terminal transfer statuses.
type TransferEvent struct {
	TransferID    int64     `json:"transferId"`
	FromAccountID int64     `json:"fromAccountId"`
	ToAccountID   int64     `json:"toAccountId"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}
