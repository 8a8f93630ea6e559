// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/config"
	"github.com/aristath/ballast/internal/database"
)

// InitializeDatabases opens the three databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. history.db - Daily return observations, funding fixings, holidays
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileLedger,
		Name:    "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	container.HistoryDB = historyDB

	// 2. indexes.db - Index definitions
	indexesDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "indexes.db"),
		Profile: database.ProfileLedger,
		Name:    "indexes",
	})
	if err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to initialize indexes database: %w", err)
	}
	container.IndexesDB = indexesDB

	// 3. snapshots.db - Valuation runs
	snapshotsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "snapshots.db"),
		Profile: database.ProfileLedger,
		Name:    "snapshots",
	})
	if err != nil {
		historyDB.Close()
		indexesDB.Close()
		return nil, fmt.Errorf("failed to initialize snapshots database: %w", err)
	}
	container.SnapshotsDB = snapshotsDB

	// Apply schemas
	for _, db := range []*database.DB{historyDB, indexesDB, snapshotsDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().
		Str("data_dir", cfg.DataDir).
		Msg("Databases initialized")

	return container, nil
}
