package mongo

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fracbond-investment-ledger/internal/domain/audit"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/shared"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*audit.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Entry), args.Error(1)
}

func (m *MockAuditRepository) ListByInvestor(ctx context.Context, investorKey string, limit, offset int) ([]*audit.Entry, error) {
	args := m.Called(ctx, investorKey, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockAuditRepository) ListByBond(ctx context.Context, bondID int64, limit, offset int) ([]*audit.Entry, error) {
	args := m.Called(ctx, bondID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func TestNewAuditRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewAuditRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &AuditRepository{}, repo)
}

func testEntry(eventID uuid.UUID) *audit.Entry {
	return &audit.Entry{
		EventID:          eventID,
		Type:             shared.EventTypeInvested,
		BondID:           1,
		InvestorKey:      "0xabcdef0123456789abcdef0123456789abcdef01",
		Amount:           money.FromMinorUnits(100_000),
		RealizedInterest: money.Zero,
		PrincipalAfter:   money.FromMinorUnits(100_000),
		CorrelationID:    "corr1",
		OccurredAt:       time.Now().UTC(),
		RecordedAt:       time.Now().UTC(),
	}
}

func TestAuditRepository_Create(t *testing.T) {
	eventID := uuid.New()
	entry := testEntry(eventID)

	tests := []struct {
		name          string
		setupMocks    func(m *MockAuditRepository)
		expectedError error
	}{
		{
			name: "successful creation",
			setupMocks: func(m *MockAuditRepository) {
				m.On("Create", mock.Anything, entry).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "duplicate entry",
			setupMocks: func(m *MockAuditRepository) {
				m.On("Create", mock.Anything, entry).Return(audit.ErrDuplicateEntry{EventID: eventID})
			},
			expectedError: audit.ErrDuplicateEntry{EventID: eventID},
		},
		{
			name: "database error",
			setupMocks: func(m *MockAuditRepository) {
				m.On("Create", mock.Anything, entry).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockAuditRepository{}
			tt.setupMocks(mockRepo)

			err := mockRepo.Create(context.Background(), entry)

			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuditRepository_GetByEventID(t *testing.T) {
	eventID := uuid.New()

	t.Run("entry found", func(t *testing.T) {
		mockRepo := &MockAuditRepository{}
		expected := testEntry(eventID)
		mockRepo.On("GetByEventID", mock.Anything, eventID).Return(expected, nil)

		entry, err := mockRepo.GetByEventID(context.Background(), eventID)

		assert.NoError(t, err)
		assert.Equal(t, expected, entry)
		mockRepo.AssertExpectations(t)
	})

	t.Run("entry not found", func(t *testing.T) {
		mockRepo := &MockAuditRepository{}
		mockRepo.On("GetByEventID", mock.Anything, eventID).
			Return(nil, audit.ErrEntryNotFound{EventID: eventID})

		entry, err := mockRepo.GetByEventID(context.Background(), eventID)

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, audit.ErrEntryNotFound{EventID: eventID})
		mockRepo.AssertExpectations(t)
	})
}

func TestAuditRepository_ListByInvestor(t *testing.T) {
	investorKey := "0xabcdef0123456789abcdef0123456789abcdef01"
	entries := []*audit.Entry{testEntry(uuid.New()), testEntry(uuid.New())}

	mockRepo := &MockAuditRepository{}
	mockRepo.On("ListByInvestor", mock.Anything, investorKey, 10, 0).Return(entries, nil)

	result, err := mockRepo.ListByInvestor(context.Background(), investorKey, 10, 0)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	mockRepo.AssertExpectations(t)
}

func TestAuditRepository_ListByBond(t *testing.T) {
	entries := []*audit.Entry{testEntry(uuid.New())}

	mockRepo := &MockAuditRepository{}
	mockRepo.On("ListByBond", mock.Anything, int64(1), 20, 40).Return(entries, nil)

	result, err := mockRepo.ListByBond(context.Background(), int64(1), 20, 40)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	mockRepo.AssertExpectations(t)
}
