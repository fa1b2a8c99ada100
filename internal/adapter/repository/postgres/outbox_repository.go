package postgres

import (
	"context"
	"database/sql"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/logger"
)

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	const query = `
SELECT id, transfer_id, event_type, payload, status, created_at
FROM transfer_outbox
WHERE status = $1
ORDER BY created_at, id
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, domain.OutboxStatusPending, limit)
	if err != nil {
		logger.Error("outbox repository get pending failed", err, nil)
		return nil, storeErr("get pending outbox messages", err)
	}
	defer rows.Close()

	messages := make([]domain.OutboxMessage, 0)
	for rows.Next() {
		var message domain.OutboxMessage
		if err := rows.Scan(
			&message.ID,
			&message.TransferID,
			&message.EventType,
			&message.Payload,
			&message.Status,
			&message.CreatedAt,
		); err != nil {
			return nil, storeErr("scan outbox message row", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate outbox message rows", err)
	}

	return messages, nil
}

func (r *OutboxRepository) MarkStatus(ctx context.Context, id string, status domain.OutboxStatus) error {
	const query = `UPDATE transfer_outbox SET status = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		logger.Error("outbox repository mark status failed", err, logger.Fields{
			"messageId": id,
			"status":    status,
		})
		return storeErr("mark outbox message status", err)
	}
	return nil
}
