// Package reconciliation_sweeper periodically looks for transfers whose legs no
// longer pair up and reports them as open issues until they are fixed.
package reconciliation_sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shop-backoffice-ledger/internal/config"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/reconciliation"
	"github.com/shop-backoffice-ledger/internal/platform/locking"
)

// SweepLockKey keeps a single replica sweeping at a time
const SweepLockKey = "reconciliation:sweep"

// Result summarizes one sweep
type Result struct {
	Open     int
	Resolved int64
}

type Sweeper struct {
	entryRepo ledger.Repository
	issueRepo reconciliation.Repository
	locker    locking.Locker
	logger    *slog.Logger
	interval  time.Duration
	lockTTL   time.Duration
	now       func() time.Time
}

func NewSweeper(
	cfg *config.ReconciliationConfig,
	entryRepo ledger.Repository,
	issueRepo reconciliation.Repository,
	locker locking.Locker,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		entryRepo: entryRepo,
		issueRepo: issueRepo,
		locker:    locker,
		logger:    logger,
		interval:  cfg.SweepInterval,
		lockTTL:   cfg.LockTTL,
		now:       time.Now,
	}
}

// Start sweeps once immediately, then every interval until ctx is canceled
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting reconciliation sweeper", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("Reconciliation sweeper stopping due to context cancellation.")
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	err := locking.WithLock(ctx, s.locker, s.logger, SweepLockKey, s.lockTTL, func(ctx context.Context) error {
		result, err := s.Sweep(ctx)
		if err != nil {
			return err
		}
		if result.Open > 0 || result.Resolved > 0 {
			s.logger.Warn("Reconciliation sweep found issues", "open", result.Open, "resolved", result.Resolved)
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, locking.ErrNotObtained):
		s.logger.Debug("Reconciliation sweep skipped, another replica holds the lock")
	case ctx.Err() != nil:
	default:
		s.logger.Error("Reconciliation sweep failed", "error", err)
	}
}

// Sweep reports every orphaned transfer and resolves the issues that no
// longer apply
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	orphans, err := s.entryRepo.FindOrphanedTransfers(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to find orphaned transfers: %w", err)
	}

	seenAt := s.now().UTC()
	active := make([]string, 0, len(orphans))
	for _, orphan := range orphans {
		issue := reconciliation.NewOrphanedTransferIssue(orphan, seenAt)
		if err := s.issueRepo.Upsert(ctx, issue); err != nil {
			return Result{}, err
		}
		active = append(active, issue.Key)
		s.logger.Warn("Orphaned transfer leg",
			"transfer_id", orphan.TransferID.String(),
			"entry_ids", orphan.EntryIDs,
			"out_legs", orphan.OutLegs,
			"in_legs", orphan.InLegs,
		)
	}

	resolved, err := s.issueRepo.ResolveMissing(ctx, reconciliation.IssueKindOrphanedTransferLeg, active)
	if err != nil {
		return Result{}, err
	}

	return Result{Open: len(active), Resolved: resolved}, nil
}
