package persistence

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrateUp brings the ledger schema to the latest version found under dir
// and returns that version.
func MigrateUp(logger *slog.Logger, databaseURL, dir string) (uint, error) {
	switch {
	case dir == "":
		return 0, errors.New("migrations path cannot be empty")
	case databaseURL == "":
		return 0, errors.New("database URL cannot be empty")
	}

	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to open migrations in %s: %w", dir, err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Failed to release migration resources", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("Ledger schema already up to date")
	case err != nil:
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}

	logger.Info("Ledger schema migrated", "version", version)
	return version, nil
}
