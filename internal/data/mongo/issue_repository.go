package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shop-backoffice-ledger/internal/domain/reconciliation"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

// IssueRepository implements the reconciliation.Repository interface for MongoDB
type IssueRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewIssueRepository creates a new MongoDB reconciliation issue repository
func NewIssueRepository(logger *slog.Logger, db *mongo.Database) *IssueRepository {
	return &IssueRepository{
		db:     db,
		logger: logger,
	}
}

func (r *IssueRepository) collection() *mongo.Collection {
	return r.db.Collection(persistence.CollectionReconciliationIssues)
}

// Upsert inserts the issue, or refreshes it when it was already reported.
// A resolved issue that shows up again is reopened.
func (r *IssueRepository) Upsert(ctx context.Context, issue *reconciliation.Issue) error {
	update := bson.M{
		"$set": bson.M{
			"kind":         issue.Kind,
			"transfer_id":  issue.TransferID,
			"entry_ids":    issue.EntryIDs,
			"detail":       issue.Detail,
			"last_seen_at": issue.LastSeenAt,
			"resolved":     false,
		},
		"$setOnInsert": bson.M{"detected_at": issue.DetectedAt},
		"$unset":       bson.M{"resolved_at": ""},
	}

	_, err := r.collection().UpdateOne(ctx, bson.M{"_id": issue.Key}, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to upsert reconciliation issue",
			"key", issue.Key,
			"error", err)
		return fmt.Errorf("failed to upsert reconciliation issue: %w", err)
	}
	return nil
}

// ListOpen returns a page of unresolved issues, most recent first
func (r *IssueRepository) ListOpen(ctx context.Context, limit, offset int) ([]*reconciliation.Issue, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "detected_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection().Find(ctx, bson.M{"resolved": false}, opts)
	if err != nil {
		r.logger.Error("Failed to list reconciliation issues", "error", err)
		return nil, fmt.Errorf("failed to list reconciliation issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := make([]*reconciliation.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		r.logger.Error("Failed to decode reconciliation issues", "error", err)
		return nil, fmt.Errorf("failed to decode reconciliation issues: %w", err)
	}
	return issues, nil
}

func (r *IssueRepository) CountOpen(ctx context.Context) (int64, error) {
	count, err := r.collection().CountDocuments(ctx, bson.M{"resolved": false})
	if err != nil {
		r.logger.Error("Failed to count reconciliation issues", "error", err)
		return 0, fmt.Errorf("failed to count reconciliation issues: %w", err)
	}
	return count, nil
}

// ResolveMissing marks as resolved the open issues of kind that the last
// sweep no longer found
func (r *IssueRepository) ResolveMissing(ctx context.Context, kind reconciliation.IssueKind, activeKeys []string) (int64, error) {
	if activeKeys == nil {
		activeKeys = []string{}
	}

	filter := bson.M{
		"kind":     kind,
		"resolved": false,
		"_id":      bson.M{"$nin": activeKeys},
	}
	update := bson.M{"$set": bson.M{"resolved": true, "resolved_at": time.Now().UTC()}}

	result, err := r.collection().UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to resolve reconciliation issues",
			"kind", string(kind),
			"error", err)
		return 0, fmt.Errorf("failed to resolve reconciliation issues: %w", err)
	}
	return result.ModifiedCount, nil
}
