// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/config"
	"github.com/aristath/ballast/internal/reliability"
	"github.com/aristath/ballast/internal/scheduler"
)

// InitializeJobs creates the recurring job instances. Registration on the
// scheduler happens in main.go so manual triggering works even when the
// scheduler itself is disabled.
func InitializeJobs(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.ValuationJob = scheduler.NewValuationJob(container.ValuationService, log)
	container.MaintenanceJob = reliability.NewMaintenanceJob(container.Databases(), cfg.DataDir, log)

	if container.R2BackupService != nil {
		container.BackupJob = scheduler.NewBackupJob(container.R2BackupService, cfg.Backup.RetentionDays, log)
	}

	log.Info().Msg("Jobs initialized")
}
