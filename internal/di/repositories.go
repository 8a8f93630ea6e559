// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/funding"
	"github.com/aristath/ballast/internal/modules/indexes"
	"github.com/aristath/ballast/internal/modules/snapshots"
	"github.com/aristath/ballast/internal/modules/universe"
)

// InitializeRepositories creates all repositories on the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.UniverseRepo = universe.NewRepository(container.HistoryDB.Conn(), log)
	container.CalendarRepo = calendar.NewRepository(container.HistoryDB.Conn(), log)
	container.FundingRepo = funding.NewRepository(container.HistoryDB.Conn(), log)
	container.IndexRepo = indexes.NewRepository(container.IndexesDB.Conn(), log)
	container.SnapshotsRepo = snapshots.NewRepository(container.SnapshotsDB.Conn(), log)

	log.Info().Msg("Repositories initialized")
}
