package outbox_poller

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

func newCreatedMessage(t *testing.T) (*outbox.Message, uuid.UUID) {
	operationID := uuid.New()
	event := outbox.NewChangeEvent(shared.ChangeTypeEntriesCreated, shared.Actor{ID: "u-1"}, "corr-1")
	event.OperationID = &operationID
	event.Entries = []*ledger.Entry{{ID: 41, Kind: shared.EntryKindExpense}, {ID: 42, Kind: shared.EntryKindRevenue}}

	message, err := outbox.NewMessage(event)
	require.NoError(t, err)
	message.ID = 7
	return message, operationID
}

func TestChangePublisher_PublishOutboxMessage(t *testing.T) {
	brokerErr := errors.New("broker unavailable")

	tests := []struct {
		name       string
		setupMocks func(repo *MockOutboxRepo, ops *MockOperationRepo, pub *MockChangePublisher, operationID uuid.UUID)
		wantErr    bool
	}{
		{
			name: "completes the operation then publishes",
			setupMocks: func(repo *MockOutboxRepo, ops *MockOperationRepo, pub *MockChangePublisher, operationID uuid.UUID) {
				ops.On("MarkCompleted", mock.Anything, operationID, []int64{41, 42}).Return(nil)
				pub.On("PublishChange", mock.Anything, mock.MatchedBy(func(e *outbox.ChangeEvent) bool {
					return e.OperationID != nil && *e.OperationID == operationID && len(e.Entries) == 2
				})).Return(nil)
				repo.On("UpdateStatus", mock.Anything, int64(7), shared.OutboxStatusProcessed).Return(nil)
			},
		},
		{
			name: "missing operation record still publishes",
			setupMocks: func(repo *MockOutboxRepo, ops *MockOperationRepo, pub *MockChangePublisher, operationID uuid.UUID) {
				ops.On("MarkCompleted", mock.Anything, operationID, []int64{41, 42}).Return(operation.ErrRecordNotFound{OperationID: operationID})
				pub.On("PublishChange", mock.Anything, mock.Anything).Return(nil)
				repo.On("UpdateStatus", mock.Anything, int64(7), shared.OutboxStatusProcessed).Return(nil)
			},
		},
		{
			name: "record store failure stops before publishing",
			setupMocks: func(repo *MockOutboxRepo, ops *MockOperationRepo, pub *MockChangePublisher, operationID uuid.UUID) {
				ops.On("MarkCompleted", mock.Anything, operationID, []int64{41, 42}).Return(errors.New("mongo down"))
			},
			wantErr: true,
		},
		{
			name: "publish failure leaves the message pending",
			setupMocks: func(repo *MockOutboxRepo, ops *MockOperationRepo, pub *MockChangePublisher, operationID uuid.UUID) {
				ops.On("MarkCompleted", mock.Anything, operationID, []int64{41, 42}).Return(nil)
				pub.On("PublishChange", mock.Anything, mock.Anything).Return(brokerErr)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockOutboxRepo{}
			ops := &MockOperationRepo{}
			pub := &MockChangePublisher{}
			message, operationID := newCreatedMessage(t)
			tt.setupMocks(repo, ops, pub, operationID)

			err := NewChangePublisher(repo, ops, pub, newTestLogger()).PublishOutboxMessage(context.Background(), message)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			ops.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestChangePublisher_CorrectionEvent(t *testing.T) {
	repo := &MockOutboxRepo{}
	ops := &MockOperationRepo{}
	pub := &MockChangePublisher{}

	event := outbox.NewChangeEvent(shared.ChangeTypeEntriesDeleted, shared.Actor{ID: "u-1"}, "")
	event.EntryIDs = []int64{5, 6}
	message, err := outbox.NewMessage(event)
	require.NoError(t, err)
	message.ID = 9

	pub.On("PublishChange", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, int64(9), shared.OutboxStatusProcessed).Return(nil)

	err = NewChangePublisher(repo, ops, pub, newTestLogger()).PublishOutboxMessage(context.Background(), message)

	assert.NoError(t, err)
	ops.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
	pub.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestChangePublisher_CorruptPayload(t *testing.T) {
	repo := &MockOutboxRepo{}
	pub := &MockChangePublisher{}
	message := &outbox.Message{ID: 3, Payload: []byte("{broken"), Status: shared.OutboxStatusPending}

	repo.On("UpdateStatus", mock.Anything, int64(3), shared.OutboxStatusFailedToPublish).Return(nil)

	err := NewChangePublisher(repo, &MockOperationRepo{}, pub, newTestLogger()).PublishOutboxMessage(context.Background(), message)

	assert.ErrorContains(t, err, "unmarshal payload for outbox 3 failed")
	pub.AssertNotCalled(t, "PublishChange", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}
