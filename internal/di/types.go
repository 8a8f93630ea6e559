// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/ballast/internal/clients/ratesfeed"
	"github.com/aristath/ballast/internal/database"
	"github.com/aristath/ballast/internal/events"
	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/engine"
	"github.com/aristath/ballast/internal/modules/funding"
	"github.com/aristath/ballast/internal/modules/indexes"
	"github.com/aristath/ballast/internal/modules/reports"
	"github.com/aristath/ballast/internal/modules/scenarios"
	"github.com/aristath/ballast/internal/modules/snapshots"
	"github.com/aristath/ballast/internal/modules/universe"
	"github.com/aristath/ballast/internal/reliability"
	"github.com/aristath/ballast/internal/scheduler"
	"github.com/aristath/ballast/internal/services"
)

// Container holds all application dependencies. It is created by Wire()
// and passed to the server so handlers share a single instance of every
// service.
type Container struct {
	// Databases
	HistoryDB   *database.DB // Daily returns, funding fixings, holiday calendars
	IndexesDB   *database.DB // Index definitions
	SnapshotsDB *database.DB // Valuation runs

	// Event bus
	EventBus *events.Bus

	// Repositories
	UniverseRepo  *universe.Repository
	CalendarRepo  *calendar.Repository
	FundingRepo   *funding.Repository
	IndexRepo     *indexes.Repository
	SnapshotsRepo *snapshots.Repository

	// Services
	EngineService    *engine.Service
	ValuationService *services.ValuationService
	ScenarioService  *scenarios.Service
	ReportWriter     *reports.Writer

	// Reliability. R2BackupService is nil when backups are disabled.
	BackupService   *reliability.BackupService
	R2BackupService *reliability.R2BackupService

	// Jobs. BackupJob is nil when backups are disabled.
	ValuationJob   *scheduler.ValuationJob
	BackupJob      *scheduler.BackupJob
	MaintenanceJob *reliability.MaintenanceJob

	// Rates feed client, nil when the feed is disabled
	FeedClient *ratesfeed.Client
}

// Databases returns the open databases keyed by name, the shape the
// backup and maintenance services consume.
func (c *Container) Databases() map[string]*database.DB {
	return map[string]*database.DB{
		"history":   c.HistoryDB,
		"indexes":   c.IndexesDB,
		"snapshots": c.SnapshotsDB,
	}
}

// Close closes every open database.
func (c *Container) Close() {
	for _, db := range []*database.DB{c.HistoryDB, c.IndexesDB, c.SnapshotsDB} {
		if db != nil {
			db.Close()
		}
	}
}
