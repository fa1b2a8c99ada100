package kafka

import (
	"context"
	"fmt"

	"github.com/isbank/ledger-core/internal/logger"
	"github.com/segmentio/kafka-go"
)

type Producer interface {
	Produce(ctx context.Context, topic string, key, message []byte) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}

	logger.Info("kafka producer initialized", logger.Fields{
		"brokers": brokers,
	})

	return &kafkaProducer{writer: writer}
}

func (p *kafkaProducer) Produce(ctx context.Context, topic string, key, message []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: message,
	})
	if err != nil {
		logger.Error("kafka producer write failed", err, logger.Fields{
			"topic": topic,
		})
		return fmt.Errorf("produce message: %w", err)
	}

	return nil
}

func (p *kafkaProducer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
