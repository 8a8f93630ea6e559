package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ballast/internal/services"
)

type stubValuations struct {
	outcomes []services.ValuationOutcome
	failures []services.IndexFailure
	err      error
	gotDate  time.Time
}

func (s *stubValuations) ValuateEnabled(_ context.Context, valuationDate time.Time) ([]services.ValuationOutcome, []services.IndexFailure, error) {
	s.gotDate = valuationDate
	return s.outcomes, s.failures, s.err
}

func TestValuationJob_Run(t *testing.T) {
	stub := &stubValuations{
		outcomes: []services.ValuationOutcome{{RunID: "r1"}, {RunID: "r2"}},
	}
	job := NewValuationJob(stub, zerolog.Nop())

	require.NoError(t, job.Run())

	assert.Equal(t, "valuation", job.Name())
	assert.Equal(t, time.UTC, stub.gotDate.Location())
	assert.Equal(t, 0, stub.gotDate.Hour())
}

func TestValuationJob_ReportsFailures(t *testing.T) {
	stub := &stubValuations{
		outcomes: []services.ValuationOutcome{{RunID: "r1"}},
		failures: []services.IndexFailure{{IndexID: "VT-2", Err: fmt.Errorf("no history")}},
	}
	job := NewValuationJob(stub, zerolog.Nop())

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 indexes failed")
}

func TestValuationJob_ListError(t *testing.T) {
	stub := &stubValuations{err: fmt.Errorf("db locked")}
	job := NewValuationJob(stub, zerolog.Nop())

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}

type stubBackups struct {
	createErr    error
	rotateErr    error
	created      bool
	gotRetention int
}

func (s *stubBackups) CreateAndUploadBackup(_ context.Context) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = true
	return nil
}

func (s *stubBackups) RotateOldBackups(_ context.Context, retentionDays int) error {
	s.gotRetention = retentionDays
	return s.rotateErr
}

func TestBackupJob_Run(t *testing.T) {
	stub := &stubBackups{}
	job := NewBackupJob(stub, 30, zerolog.Nop())

	require.NoError(t, job.Run())

	assert.Equal(t, "backup", job.Name())
	assert.True(t, stub.created)
	assert.Equal(t, 30, stub.gotRetention)
}

func TestBackupJob_UploadError(t *testing.T) {
	stub := &stubBackups{createErr: fmt.Errorf("bucket gone")}
	job := NewBackupJob(stub, 30, zerolog.Nop())

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
	assert.Zero(t, stub.gotRetention)
}

func TestBackupJob_RotationErrorDoesNotFail(t *testing.T) {
	stub := &stubBackups{rotateErr: fmt.Errorf("list failed")}
	job := NewBackupJob(stub, 30, zerolog.Nop())

	require.NoError(t, job.Run())
	assert.True(t, stub.created)
}
