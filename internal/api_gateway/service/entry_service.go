package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

// EntryServiceImpl implements the EntryService interface
type EntryServiceImpl struct {
	db        persistence.TxBeginner
	entryRepo ledger.Repository
	changes   changeWriter
	logger    *slog.Logger
}

// NewEntryService creates a new entry service
func NewEntryService(logger *slog.Logger, db persistence.TxBeginner, entryRepo ledger.Repository, outboxRepo outbox.Repository) EntryService {
	return &EntryServiceImpl{
		db:        db,
		entryRepo: entryRepo,
		changes:   changeWriter{outboxRepo: outboxRepo, logger: logger},
		logger:    logger,
	}
}

// ListEntries retrieves a page of entries matching filter, newest first
func (s *EntryServiceImpl) ListEntries(ctx context.Context, filter ledger.Filter, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.entryRepo.List(ctx, filter, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.entryRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (s *EntryServiceImpl) GetEntry(ctx context.Context, id int64) (*ledger.Entry, error) {
	return s.entryRepo.GetByID(ctx, id)
}

// CorrectEntry edits the entry in place, versioned, and publishes the new row
func (s *EntryServiceImpl) CorrectEntry(ctx context.Context, id int64, version int, patch ledger.Patch, meta ChangeMeta) (*ledger.Entry, error) {
	var corrected *ledger.Entry

	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		repo := s.entryRepo.WithTx(tx)

		entry, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if entry.Version != version {
			return ledger.ErrConcurrentModification
		}
		if err := entry.ApplyPatch(patch); err != nil {
			return err
		}
		if err := entry.Validate(); err != nil {
			return err
		}
		if err := repo.Update(ctx, entry); err != nil {
			return err
		}

		event := outbox.NewChangeEvent(shared.ChangeTypeEntryUpdated, meta.Actor, meta.CorrelationID)
		event.Entries = []*ledger.Entry{entry}
		if err := s.changes.write(ctx, tx, event); err != nil {
			return err
		}
		corrected = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrConcurrentModification) {
			s.logger.Info("Stale entry correction rejected", "id", id, "version", version)
		}
		return nil, err
	}

	s.logger.Info("Ledger entry corrected",
		"id", id,
		"version", corrected.Version,
		"actor_id", meta.Actor.ID,
		"correlation_id", meta.CorrelationID,
	)
	return corrected, nil
}

// DeleteEntry removes the entry permanently. Deleting a transfer leg removes
// both legs so the pair never goes out of balance.
func (s *EntryServiceImpl) DeleteEntry(ctx context.Context, id int64, meta ChangeMeta) ([]int64, error) {
	var deleted []int64

	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		repo := s.entryRepo.WithTx(tx)

		entry, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if entry.IsTransferLeg() {
			deleted, err = repo.DeleteByTransferID(ctx, *entry.TransferID)
			if err != nil {
				return err
			}
		} else {
			if err := repo.Delete(ctx, id); err != nil {
				return err
			}
			deleted = []int64{id}
		}

		event := outbox.NewChangeEvent(shared.ChangeTypeEntriesDeleted, meta.Actor, meta.CorrelationID)
		event.EntryIDs = deleted
		return s.changes.write(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ledger entries deleted",
		"id", id,
		"deleted_ids", deleted,
		"actor_id", meta.Actor.ID,
		"correlation_id", meta.CorrelationID,
	)
	return deleted, nil
}
