package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

const (
	// pgUniqueViolation is the SQLSTATE of unique constraint violations
	pgUniqueViolation = "23505"
	// pgDataExceptionClass covers numeric overflow and other values a column cannot hold
	pgDataExceptionClass = "22"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// outOfRange turns a data exception into a validation error on field. Any
// other error is returned unchanged with ok unset.
func outOfRange(field string, err error) (error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || !strings.HasPrefix(pgErr.Code, pgDataExceptionClass) {
		return err, false
	}
	return shared.NewValidationError(field, "is out of range"), true
}
