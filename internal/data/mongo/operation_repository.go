// Package mongo implements the document repositories: operation records,
// repair tickets and reconciliation issues.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shop-backoffice-ledger/internal/domain/operation"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

// operationDocument is the stored form of an operation record. The operation
// id is the document key.
type operationDocument struct {
	ID             string                 `bson:"_id"`
	Type           shared.OperationType   `bson:"type"`
	IdempotencyKey string                 `bson:"idempotency_key,omitempty"`
	CorrelationID  string                 `bson:"correlation_id,omitempty"`
	Actor          shared.Actor           `bson:"actor"`
	TicketRef      string                 `bson:"ticket_ref,omitempty"`
	Status         shared.OperationStatus `bson:"status"`
	FailureReason  string                 `bson:"failure_reason,omitempty"`
	EntryIDs       []int64                `bson:"entry_ids,omitempty"`
	CreatedAt      time.Time              `bson:"created_at"`
	ProcessedAt    *time.Time             `bson:"processed_at,omitempty"`
}

func toOperationDocument(r *operation.Record) *operationDocument {
	return &operationDocument{
		ID:             r.OperationID.String(),
		Type:           r.Type,
		IdempotencyKey: r.IdempotencyKey,
		CorrelationID:  r.CorrelationID,
		Actor:          r.Actor,
		TicketRef:      r.TicketRef,
		Status:         r.Status,
		FailureReason:  r.FailureReason,
		EntryIDs:       r.EntryIDs,
		CreatedAt:      r.CreatedAt,
		ProcessedAt:    r.ProcessedAt,
	}
}

func (d *operationDocument) record() (*operation.Record, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid operation id %q: %w", d.ID, err)
	}
	return &operation.Record{
		OperationID:    id,
		Type:           d.Type,
		IdempotencyKey: d.IdempotencyKey,
		CorrelationID:  d.CorrelationID,
		Actor:          d.Actor,
		TicketRef:      d.TicketRef,
		Status:         d.Status,
		FailureReason:  d.FailureReason,
		EntryIDs:       d.EntryIDs,
		CreatedAt:      d.CreatedAt,
		ProcessedAt:    d.ProcessedAt,
	}, nil
}

// OperationRepository implements the operation.Repository interface for MongoDB
type OperationRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewOperationRepository creates a new MongoDB operation repository
func NewOperationRepository(logger *slog.Logger, db *mongo.Database) *OperationRepository {
	return &OperationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *OperationRepository) collection() *mongo.Collection {
	return r.db.Collection(persistence.CollectionOperations)
}

// EnsureIndexes creates the unique idempotency key index and the listing index
func (r *OperationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		r.logger.Error("Failed to create operation indexes", "error", err)
		return fmt.Errorf("failed to create operation indexes: %w", err)
	}
	return nil
}

// Create stores a new operation record.
// Returns ErrDuplicateRecord when the operation id or idempotency key is taken.
func (r *OperationRepository) Create(ctx context.Context, record *operation.Record) error {
	_, err := r.collection().InsertOne(ctx, toOperationDocument(record))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return operation.ErrDuplicateRecord{OperationID: record.OperationID}
		}
		r.logger.Error("Failed to create operation record",
			"operation_id", record.OperationID.String(),
			"error", err)
		return fmt.Errorf("failed to create operation record: %w", err)
	}
	return nil
}

// GetByID retrieves an operation record by its operation id.
// Returns ErrRecordNotFound if no record exists.
func (r *OperationRepository) GetByID(ctx context.Context, operationID uuid.UUID) (*operation.Record, error) {
	var doc operationDocument
	err := r.collection().FindOne(ctx, bson.M{"_id": operationID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, operation.ErrRecordNotFound{OperationID: operationID}
		}
		r.logger.Error("Failed to get operation record",
			"operation_id", operationID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get operation record: %w", err)
	}
	return doc.record()
}

// GetByIdempotencyKey retrieves the record submitted with the key.
// Returns nil if no record exists, enabling idempotent submissions.
func (r *OperationRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*operation.Record, error) {
	if idempotencyKey == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}

	var doc operationDocument
	err := r.collection().FindOne(ctx, bson.M{"idempotency_key": idempotencyKey}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("Failed to get operation record by idempotency key",
			"idempotency_key", idempotencyKey,
			"error", err)
		return nil, fmt.Errorf("failed to get operation record by idempotency key: %w", err)
	}
	return doc.record()
}

// List returns a page of records, newest first
func (r *OperationRepository) List(ctx context.Context, status *shared.OperationStatus, limit, offset int) ([]*operation.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection().Find(ctx, statusFilter(status), opts)
	if err != nil {
		r.logger.Error("Failed to list operation records", "error", err)
		return nil, fmt.Errorf("failed to list operation records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []operationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode operation records", "error", err)
		return nil, fmt.Errorf("failed to decode operation records: %w", err)
	}

	records := make([]*operation.Record, 0, len(docs))
	for i := range docs {
		record, err := docs[i].record()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Count counts the records, optionally restricted to a status
func (r *OperationRepository) Count(ctx context.Context, status *shared.OperationStatus) (int64, error) {
	count, err := r.collection().CountDocuments(ctx, statusFilter(status))
	if err != nil {
		r.logger.Error("Failed to count operation records", "error", err)
		return 0, fmt.Errorf("failed to count operation records: %w", err)
	}
	return count, nil
}

// MarkCompleted records the entries produced by the operation
func (r *OperationRepository) MarkCompleted(ctx context.Context, operationID uuid.UUID, entryIDs []int64) error {
	return r.finish(ctx, operationID, bson.M{
		"status":       shared.OperationStatusCompleted,
		"entry_ids":    entryIDs,
		"processed_at": time.Now().UTC(),
	})
}

// MarkFailed records why the operation was rejected
func (r *OperationRepository) MarkFailed(ctx context.Context, operationID uuid.UUID, reason string) error {
	return r.finish(ctx, operationID, bson.M{
		"status":         shared.OperationStatusFailed,
		"failure_reason": reason,
		"processed_at":   time.Now().UTC(),
	})
}

func (r *OperationRepository) finish(ctx context.Context, operationID uuid.UUID, set bson.M) error {
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": operationID.String()}, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("Failed to update operation record",
			"operation_id", operationID.String(),
			"status", set["status"],
			"error", err)
		return fmt.Errorf("failed to update operation record: %w", err)
	}

	if result.MatchedCount == 0 {
		return operation.ErrRecordNotFound{OperationID: operationID}
	}
	return nil
}

func statusFilter(status *shared.OperationStatus) bson.M {
	if status == nil {
		return bson.M{}
	}
	return bson.M{"status": *status}
}
