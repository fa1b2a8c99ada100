package outbox

import (
	"context"
	"strconv"
	"time"

	"github.com/isbank/ledger-core/internal/adapter/repository/repo_interfaces"
	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/infra/kafka"
	"github.com/isbank/ledger-core/internal/logger"
)

const pollBatchSize = 10

// Processor drains the transactional outbox into the broker. Events are
// written to the outbox inside the same database transaction that finalized
// the transfer, so a broker outage never loses an event, it only delays it.
type Processor struct {
	outboxRepo   repo_interfaces.OutboxRepository
	producer     kafka.Producer
	topic        string
	pollInterval time.Duration
}

func NewProcessor(
	outboxRepo repo_interfaces.OutboxRepository,
	producer kafka.Producer,
	topic string,
	pollInterval time.Duration,
) *Processor {
	return &Processor{
		outboxRepo:   outboxRepo,
		producer:     producer,
		topic:        topic,
		pollInterval: pollInterval,
	}
}

// Run polls until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	logger.Info("outbox processor started", logger.Fields{
		"topic":        p.topic,
		"pollInterval": p.pollInterval.String(),
	})

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("outbox processor stopped", nil)
			return ctx.Err()
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Processor) drain(ctx context.Context) {
	messages, err := p.outboxRepo.GetPending(ctx, pollBatchSize)
	if err != nil {
		logger.Error("outbox processor fetch pending failed", err, nil)
		return
	}

	for _, message := range messages {
		if err := p.publish(ctx, message); err != nil {
			// Leave the message pending; the next poll retries it.
			logger.Error("outbox processor publish failed", err, logger.Fields{
				"messageId":  message.ID,
				"transferId": message.TransferID,
				"eventType":  message.EventType,
			})
			continue
		}

		if err := p.outboxRepo.MarkStatus(ctx, message.ID, domain.OutboxStatusPublished); err != nil {
			logger.Error("outbox processor mark published failed", err, logger.Fields{
				"messageId": message.ID,
			})
		}
	}
}

func (p *Processor) publish(ctx context.Context, message domain.OutboxMessage) error {
	key := []byte(strconv.FormatInt(message.TransferID, 10))
	return p.producer.Produce(ctx, p.topic, key, message.Payload)
}
