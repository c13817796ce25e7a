package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/outbox"
	"github.com/fracbond-investment-ledger/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

// MockProducer stands in for the Kafka event producer
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func pendingMessage(t *testing.T, id int64) *outbox.Message {
	t.Helper()
	message, err := outbox.NewMessage(&shared.LedgerEvent{
		EventID:        uuid.New(),
		Type:           shared.EventTypeInvested,
		BondID:         7,
		InvestorKey:    "0xaaaa000000000000000000000000000000000001",
		Amount:         money.FromMinorUnits(100_000),
		PrincipalAfter: money.FromMinorUnits(100_000),
		CorrelationID:  "corr1",
		OccurredAt:     time.Now().UTC(),
	})
	assert.NoError(t, err)
	message.ID = id
	return message
}

func TestEventPublisher_PublishEvent(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		name          string
		message       func(t *testing.T) *outbox.Message
		setupMocks    func(repo *MockOutboxRepo, producer *MockProducer, message *outbox.Message)
		expectedError error
	}{
		{
			name:    "successful publish marks message processed",
			message: func(t *testing.T) *outbox.Message { return pendingMessage(t, 1) },
			setupMocks: func(repo *MockOutboxRepo, producer *MockProducer, message *outbox.Message) {
				producer.On("Publish", mock.Anything, "7", mock.MatchedBy(func(event *shared.LedgerEvent) bool {
					return event.EventID == message.EventID && event.BondID == int64(7)
				})).Return(nil).Once()

				repo.On("UpdateStatus", mock.Anything, int64(1), shared.OutboxStatusProcessed).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "undecodable payload goes straight to FAILED_TO_PUBLISH",
			message: func(t *testing.T) *outbox.Message {
				return &outbox.Message{
					ID:      2,
					EventID: uuid.New(),
					Payload: []byte("invalid json"),
					Status:  shared.OutboxStatusPending,
				}
			},
			setupMocks: func(repo *MockOutboxRepo, producer *MockProducer, message *outbox.Message) {
				repo.On("UpdateStatus", mock.Anything, int64(2), shared.OutboxStatusFailedToPublish).Return(nil).Once()
			},
			expectedError: errors.New("decode payload"),
		},
		{
			name:    "publish error leaves message pending",
			message: func(t *testing.T) *outbox.Message { return pendingMessage(t, 3) },
			setupMocks: func(repo *MockOutboxRepo, producer *MockProducer, message *outbox.Message) {
				producer.On("Publish", mock.Anything, "7", mock.Anything).Return(errors.New("broker down")).Once()
			},
			expectedError: errors.New("failed to publish event"),
		},
		{
			name:    "error updating outbox status",
			message: func(t *testing.T) *outbox.Message { return pendingMessage(t, 4) },
			setupMocks: func(repo *MockOutboxRepo, producer *MockProducer, message *outbox.Message) {
				producer.On("Publish", mock.Anything, "7", mock.Anything).Return(nil).Once()

				repo.On("UpdateStatus", mock.Anything, int64(4), shared.OutboxStatusProcessed).Return(errors.New("db error")).Once()
			},
			expectedError: errors.New("failed to mark outbox"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockOutboxRepo{}
			producer := &MockProducer{}
			publisher := NewEventPublisher(repo, producer, logger)

			message := tt.message(t)
			tt.setupMocks(repo, producer, message)
			ctx := context.Background()

			err := publisher.PublishEvent(ctx, message)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			producer.AssertExpectations(t)
		})
	}
}
