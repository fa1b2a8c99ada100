package repo_interfaces

import (
	"context"

	"github.com/isbank/ledger-core/internal/domain"
)

type OutboxRepository interface {
	// GetPending returns unpublished messages oldest-first. Messages are
	// created inside the transfer repository's transactions, never here.
	GetPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkStatus(ctx context.Context, id string, status domain.OutboxStatus) error
}
