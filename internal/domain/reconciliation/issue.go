// Package reconciliation holds the inconsistencies detected in the ledger
// that need a manual decision.
package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/shop-backoffice-ledger/internal/domain/ledger"
)

// IssueKind categorizes detected inconsistencies
type IssueKind string

const (
	IssueKindOrphanedTransferLeg IssueKind = "ORPHANED_TRANSFER_LEG"
)

// Issue is one inconsistency found by the sweeper
type Issue struct {
	Key        string     `json:"key" bson:"_id"`
	Kind       IssueKind  `json:"kind" bson:"kind"`
	TransferID string     `json:"transfer_id,omitempty" bson:"transfer_id,omitempty"`
	EntryIDs   []int64    `json:"entry_ids" bson:"entry_ids"`
	Detail     string     `json:"detail" bson:"detail"`
	DetectedAt time.Time  `json:"detected_at" bson:"detected_at"`
	LastSeenAt time.Time  `json:"last_seen_at" bson:"last_seen_at"`
	Resolved   bool       `json:"resolved" bson:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}

// NewOrphanedTransferIssue describes a transfer whose legs do not pair up
func NewOrphanedTransferIssue(o ledger.OrphanedTransfer, seenAt time.Time) *Issue {
	return &Issue{
		Key:        fmt.Sprintf("%s:%s", IssueKindOrphanedTransferLeg, o.TransferID),
		Kind:       IssueKindOrphanedTransferLeg,
		TransferID: o.TransferID.String(),
		EntryIDs:   o.EntryIDs,
		Detail:     fmt.Sprintf("transfer has %d outgoing and %d incoming legs, expected 1 and 1", o.OutLegs, o.InLegs),
		DetectedAt: seenAt,
		LastSeenAt: seenAt,
	}
}

// Repository manages reconciliation issues
type Repository interface {
	// Upsert inserts the issue or refreshes LastSeenAt, EntryIDs and Detail of an open one
	Upsert(ctx context.Context, issue *Issue) error
	ListOpen(ctx context.Context, limit, offset int) ([]*Issue, error)
	CountOpen(ctx context.Context) (int64, error)
	// ResolveMissing resolves open issues of kind whose key is not in activeKeys
	ResolveMissing(ctx context.Context, kind IssueKind, activeKeys []string) (int64, error)
}
