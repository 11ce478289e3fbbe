package components

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

func TestOperationValidator_Validate(t *testing.T) {
	valid := func() *operation.Request {
		request := operation.NewRequest(shared.OperationTypeFloatOpen, testActor, "key-1", "")
		request.FloatOpen = &operation.FloatOpenIntent{Amount: dec("80")}
		return request
	}

	tests := []struct {
		name      string
		mutate    func(r *operation.Request)
		wantField string
		wantErr   error
	}{
		{name: "valid request", mutate: func(r *operation.Request) {}},
		{name: "missing operation id", mutate: func(r *operation.Request) { r.OperationID = uuid.Nil }, wantField: "operation_id"},
		{name: "missing actor", mutate: func(r *operation.Request) { r.Actor = shared.Actor{} }, wantField: "actor"},
		{name: "missing intent", mutate: func(r *operation.Request) { r.FloatOpen = nil }, wantField: "float_open"},
		{name: "unknown type", mutate: func(r *operation.Request) { r.Type = "REFUND" }, wantErr: operation.ErrInvalidOperationType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewOperationValidator(&MockEntryRepo{}, newTestLogger())
			request := valid()
			tt.mutate(request)

			err := validator.Validate(context.Background(), request)

			switch {
			case tt.wantField != "":
				var validationErr shared.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.wantField, validationErr.Field)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestOperationValidator_CheckIdempotency(t *testing.T) {
	request := operation.NewRequest(shared.OperationTypeExpense, testActor, "key-1", "")

	tests := []struct {
		name     string
		exists   bool
		repoErr  error
		wantSkip bool
		wantErr  bool
	}{
		{name: "new operation", exists: false},
		{name: "already applied", exists: true, wantSkip: true},
		{name: "lookup error", repoErr: errors.New("db down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := &MockEntryRepo{}
			entries.On("ExistsByOperationID", mock.Anything, request.OperationID).Return(tt.exists, tt.repoErr)
			validator := NewOperationValidator(entries, newTestLogger())

			skip, err := validator.CheckIdempotency(context.Background(), request)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "idempotency check failed")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantSkip, skip)
			entries.AssertExpectations(t)
		})
	}
}
