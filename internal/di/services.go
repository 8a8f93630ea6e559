// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/clients/ratesfeed"
	"github.com/aristath/ballast/internal/config"
	"github.com/aristath/ballast/internal/events"
	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/engine"
	"github.com/aristath/ballast/internal/modules/funding"
	"github.com/aristath/ballast/internal/modules/reports"
	"github.com/aristath/ballast/internal/modules/scenarios"
	"github.com/aristath/ballast/internal/reliability"
	"github.com/aristath/ballast/internal/services"
)

// calendarSource adapts the calendar repository to the engine's
// context-aware loader.
type calendarSource struct {
	repo *calendar.Repository
}

func (c calendarSource) Load(_ context.Context, name string) (*calendar.Calendar, error) {
	return c.repo.Load(name)
}

// InitializeServices creates the event bus and all services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.EventBus = events.NewBus(log)

	// Funding rates: a non-zero fixed rate switches the engine to a
	// contractual financing leg; otherwise rates come from stored
	// fixings with the configured staleness limit.
	var fundingSource engine.FundingRateSource
	if cfg.FixedFundingRate != 0 {
		fundingSource = funding.FixedSource{Rate: cfg.FixedFundingRate}
		log.Info().
			Float64("rate", cfg.FixedFundingRate).
			Msg("Using fixed funding rate")
	} else {
		fundingSource = funding.NewStoreSource(container.FundingRepo, cfg.FundingStaleLimit, log)
	}

	container.EngineService = engine.NewService(
		container.UniverseRepo,
		fundingSource,
		calendarSource{repo: container.CalendarRepo},
		engine.Params{
			ShortWindow:     cfg.ShortWindow,
			LongWindow:      cfg.LongWindow,
			VolatilityFloor: cfg.VolatilityFloor,
		},
		log,
	)

	container.ReportWriter = reports.NewWriter(cfg.ReportsDir, log)

	container.ValuationService = services.NewValuationService(
		container.IndexRepo,
		container.EngineService,
		container.SnapshotsRepo,
		container.ReportWriter,
		container.EventBus,
		log,
	)

	container.ScenarioService = scenarios.NewService(container.UniverseRepo, log)

	container.BackupService = reliability.NewBackupService(container.Databases(), log)

	// Only initialize R2 upload when backups are enabled and configured
	if cfg.Backup.Enabled {
		r2Client, err := reliability.NewR2Client(
			cfg.Backup.Endpoint,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize R2 client - R2 backup disabled")
		} else {
			container.R2BackupService = reliability.NewR2BackupService(
				r2Client,
				container.BackupService,
				cfg.DataDir,
				cfg.ReportsDir,
				container.EventBus,
				log,
			)
			log.Info().Msg("R2 cloud backup initialized")
		}
	} else {
		log.Debug().Msg("R2 backup not configured")
	}

	if cfg.FeedEnabled {
		container.FeedClient = ratesfeed.NewClient(cfg.FeedURL, container.FundingRepo, container.EventBus, log)
		log.Info().Str("url", cfg.FeedURL).Msg("Rates feed client initialized")
	}

	log.Info().Msg("Services initialized")
}
