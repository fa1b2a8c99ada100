package outbox

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/isbank/ledger-core/internal/domain"
	"github.com/isbank/ledger-core/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.ReplaceLogger(zap.NewNop())
	os.Exit(m.Run())
}

type fakeOutboxRepo struct {
	mu       sync.Mutex
	pending  []domain.OutboxMessage
	statuses map[string]domain.OutboxStatus
}

func newFakeOutboxRepo(messages ...domain.OutboxMessage) *fakeOutboxRepo {
	return &fakeOutboxRepo{
		pending:  messages,
		statuses: make(map[string]domain.OutboxStatus),
	}
}

func (f *fakeOutboxRepo) GetPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.OutboxMessage
	for _, message := range f.pending {
		if f.statuses[message.ID] == "" && len(out) < limit {
			out = append(out, message)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkStatus(ctx context.Context, id string, status domain.OutboxStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func (f *fakeOutboxRepo) statusOf(id string) domain.OutboxStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

type fakeProducer struct {
	mu       sync.Mutex
	err      error
	messages [][]byte
	keys     []string
	produced chan struct{}
}

func newFakeProducer(err error) *fakeProducer {
	return &fakeProducer{err: err, produced: make(chan struct{}, 16)}
}

func (f *fakeProducer) Produce(ctx context.Context, topic string, key, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.produced <- struct{}{}
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	f.keys = append(f.keys, string(key))
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestProcessorPublishesPendingMessages(t *testing.T) {
	message := domain.OutboxMessage{
		ID:         "msg-1",
		TransferID: 9,
		EventType:  domain.EventTransferCompleted,
		Payload:    []byte(`{"transferId":9}`),
		Status:     domain.OutboxStatusPending,
	}
	repo := newFakeOutboxRepo(message)
	producer := newFakeProducer(nil)
	processor := NewProcessor(repo, producer, "transfer_status_events", 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- processor.Run(ctx) }()

	select {
	case <-producer.produced:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not produced in time")
	}

	// Give the status update a moment to land before stopping.
	require.Eventually(t, func() bool {
		return repo.statusOf("msg-1") == domain.OutboxStatusPublished
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	producer.mu.Lock()
	defer producer.mu.Unlock()
	require.Len(t, producer.messages, 1)
	assert.Equal(t, `{"transferId":9}`, string(producer.messages[0]))
	assert.Equal(t, "9", producer.keys[0])
}

func TestProcessorLeavesMessagePendingOnPublishFailure(t *testing.T) {
	message := domain.OutboxMessage{
		ID:         "msg-1",
		TransferID: 9,
		EventType:  domain.EventTransferFailed,
		Payload:    []byte(`{}`),
		Status:     domain.OutboxStatusPending,
	}
	repo := newFakeOutboxRepo(message)
	producer := newFakeProducer(errors.New("broker unreachable"))
	processor := NewProcessor(repo, producer, "transfer_status_events", 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- processor.Run(ctx) }()

	// Observe at least two delivery attempts: the message stays pending and
	// is retried on the next poll.
	for i := 0; i < 2; i++ {
		select {
		case <-producer.produced:
		case <-time.After(2 * time.Second):
			t.Fatal("expected a retry for the failed message")
		}
	}

	cancel()
	<-done

	assert.Equal(t, domain.OutboxStatus(""), repo.statusOf("msg-1"))
}
