// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles the ledger, inventory and outbox tables while keeping every
// multi-step mutation inside the caller's transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

const entryColumns = `id, kind, amount, cost_basis, wallet, is_internal, description, category, ticket_ref, transfer_id, direction, theoretical_cash, operation_id, actor_id, actor_email, version, created_at`

// EntryRepository implements the ledger.Repository interface for PostgreSQL
type EntryRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewEntryRepository creates a new PostgreSQL ledger entry repository
func NewEntryRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &EntryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx, so entries are written atomically
// with stock updates and outbox messages.
func (r *EntryRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &EntryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the entry and fills the store-assigned id, version and created_at
func (r *EntryRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (kind, amount, cost_basis, wallet, is_internal, description, category, ticket_ref, transfer_id, direction, theoretical_cash, operation_id, actor_id, actor_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, version, created_at
	`

	err := r.querier.QueryRow(ctx, query,
		entry.Kind,
		entry.Amount,
		entry.CostBasis,
		entry.Wallet,
		entry.IsInternal,
		entry.Description,
		entry.Category,
		nullableString(entry.TicketRef),
		entry.TransferID,
		nullableString(string(entry.Direction)),
		entry.Theoretical,
		entry.OperationID,
		entry.Actor.ID,
		entry.Actor.Email,
	).Scan(&entry.ID, &entry.Version, &entry.CreatedAt)

	if err != nil {
		if vErr, ok := outOfRange("amount", err); ok {
			return vErr
		}
		r.logger.Error("Failed to create ledger entry", "kind", string(entry.Kind), "error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry by its id
func (r *EntryRepository) GetByID(ctx context.Context, id int64) (*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`

	entry, err := scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{ID: id}
		}
		r.logger.Error("Failed to get ledger entry", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// List returns a page of entries matching filter, newest first
func (r *EntryRepository) List(ctx context.Context, filter ledger.Filter, limit, offset int) ([]*ledger.Entry, error) {
	where, args := buildEntryFilter(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, len(args)-1, len(args))

	return r.queryEntries(ctx, query, args...)
}

// ListAll returns every entry matching filter, oldest first
func (r *EntryRepository) ListAll(ctx context.Context, filter ledger.Filter) ([]*ledger.Entry, error) {
	where, args := buildEntryFilter(filter)
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries%s ORDER BY created_at ASC, id ASC`, entryColumns, where)

	return r.queryEntries(ctx, query, args...)
}

// Count returns the number of entries matching filter
func (r *EntryRepository) Count(ctx context.Context, filter ledger.Filter) (int64, error) {
	where, args := buildEntryFilter(filter)
	query := `SELECT COUNT(*) FROM ledger_entries` + where

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count ledger entries", "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

// Update persists a correction. The stored version must still equal
// entry.Version; on success entry.Version is the new version.
func (r *EntryRepository) Update(ctx context.Context, entry *ledger.Entry) error {
	query := `
		UPDATE ledger_entries
		SET amount = $1, description = $2, category = $3, wallet = $4, version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	var newVersion int
	err := r.querier.QueryRow(ctx, query,
		entry.Amount,
		entry.Description,
		entry.Category,
		entry.Wallet,
		entry.ID,
		entry.Version,
	).Scan(&newVersion)
	if err == nil {
		entry.Version = newVersion
		return nil
	}
	if vErr, ok := outOfRange("amount", err); ok {
		return vErr
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to update ledger entry", "id", entry.ID, "error", err)
		return fmt.Errorf("failed to update ledger entry: %w", err)
	}

	exists, err := r.exists(ctx, entry.ID)
	if err != nil {
		return err
	}
	if !exists {
		return ledger.ErrEntryNotFound{ID: entry.ID}
	}
	return ledger.ErrConcurrentModification
}

// Delete permanently removes an entry
func (r *EntryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete ledger entry", "id", id, "error", err)
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ledger.ErrEntryNotFound{ID: id}
	}
	return nil
}

// DeleteByTransferID removes every leg of a transfer and returns their ids
func (r *EntryRepository) DeleteByTransferID(ctx context.Context, transferID uuid.UUID) ([]int64, error) {
	rows, err := r.querier.Query(ctx, `DELETE FROM ledger_entries WHERE transfer_id = $1 RETURNING id`, transferID)
	if err != nil {
		r.logger.Error("Failed to delete transfer legs", "transfer_id", transferID.String(), "error", err)
		return nil, fmt.Errorf("failed to delete transfer legs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted transfer leg: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over deleted transfer legs: %w", err)
	}
	return ids, nil
}

// ExistsByOperationID reports whether an operation already produced entries
func (r *EntryRepository) ExistsByOperationID(ctx context.Context, operationID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE operation_id = $1)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, operationID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check operation entries", "operation_id", operationID.String(), "error", err)
		return false, fmt.Errorf("failed to check operation entries: %w", err)
	}
	return exists, nil
}

// FindOrphanedTransfers lists transfer ids that do not have exactly one
// outgoing and one incoming leg
func (r *EntryRepository) FindOrphanedTransfers(ctx context.Context) ([]ledger.OrphanedTransfer, error) {
	query := `
		SELECT transfer_id,
			array_agg(id ORDER BY id),
			COUNT(*) FILTER (WHERE direction = 'OUT'),
			COUNT(*) FILTER (WHERE direction = 'IN')
		FROM ledger_entries
		WHERE transfer_id IS NOT NULL
		GROUP BY transfer_id
		HAVING COUNT(*) FILTER (WHERE direction = 'OUT') <> 1
			OR COUNT(*) FILTER (WHERE direction = 'IN') <> 1
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to find orphaned transfers", "error", err)
		return nil, fmt.Errorf("failed to find orphaned transfers: %w", err)
	}
	defer rows.Close()

	var orphans []ledger.OrphanedTransfer
	for rows.Next() {
		var o ledger.OrphanedTransfer
		if err := rows.Scan(&o.TransferID, &o.EntryIDs, &o.OutLegs, &o.InLegs); err != nil {
			return nil, fmt.Errorf("failed to scan orphaned transfer: %w", err)
		}
		orphans = append(orphans, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over orphaned transfers: %w", err)
	}
	return orphans, nil
}

func (r *EntryRepository) exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.querier.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check ledger entry", "id", id, "error", err)
		return false, fmt.Errorf("failed to check ledger entry: %w", err)
	}
	return exists, nil
}

func (r *EntryRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*ledger.Entry, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*ledger.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan ledger entry", "error", err)
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over ledger entries", "error", err)
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var (
		e         ledger.Entry
		wallet    *string
		ticketRef *string
		direction *string
	)
	err := row.Scan(
		&e.ID,
		&e.Kind,
		&e.Amount,
		&e.CostBasis,
		&wallet,
		&e.IsInternal,
		&e.Description,
		&e.Category,
		&ticketRef,
		&e.TransferID,
		&direction,
		&e.Theoretical,
		&e.OperationID,
		&e.Actor.ID,
		&e.Actor.Email,
		&e.Version,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if wallet != nil {
		e.Wallet = ledger.WalletPtr(shared.Wallet(*wallet))
	}
	if ticketRef != nil {
		e.TicketRef = *ticketRef
	}
	if direction != nil {
		e.Direction = shared.TransferDirection(*direction)
	}
	return &e, nil
}

// buildEntryFilter renders filter as a WHERE clause with positional arguments
func buildEntryFilter(f ledger.Filter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(condition string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if len(f.Kinds) > 0 {
		kinds := make([]string, 0, len(f.Kinds))
		for _, k := range f.Kinds {
			kinds = append(kinds, string(k))
		}
		add("kind = ANY($%d)", kinds)
	}
	if f.Wallet != nil {
		if *f.Wallet == shared.WalletCash {
			// legacy rows without wallet belong to the register
			add("(wallet = $%d OR wallet IS NULL)", string(*f.Wallet))
		} else {
			add("wallet = $%d", string(*f.Wallet))
		}
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.ExcludeInternal {
		conditions = append(conditions, "NOT is_internal")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
