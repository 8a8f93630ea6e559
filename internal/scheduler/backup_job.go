package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// BackupRunner creates and rotates cloud backups. Implemented by
// reliability.R2BackupService.
type BackupRunner interface {
	CreateAndUploadBackup(ctx context.Context) error
	RotateOldBackups(ctx context.Context, retentionDays int) error
}

// BackupJob uploads the nightly backup archive and applies retention
type BackupJob struct {
	backups       BackupRunner
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(backups BackupRunner, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:       backups,
		retentionDays: retentionDays,
		timeout:       30 * time.Minute,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates, uploads, and rotates backups
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.backups.CreateAndUploadBackup(ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	if err := j.backups.RotateOldBackups(ctx, j.retentionDays); err != nil {
		// The archive is already safe; rotation can catch up tomorrow
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	return nil
}
