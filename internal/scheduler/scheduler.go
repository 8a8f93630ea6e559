// Package scheduler runs the recurring jobs: daily valuations, nightly
// backups, and database maintenance.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus describes a registered job and its schedule
type JobStatus struct {
	Name     string
	Schedule string
	PrevRun  time.Time
	NextRun  time.Time
}

// Scheduler manages background jobs
type Scheduler struct {
	cron    *cron.Cron
	entries []jobEntry
	log     zerolog.Logger
}

type jobEntry struct {
	id       cron.EntryID
	name     string
	schedule string
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule (six-field specs with
// seconds, e.g. "0 0 18 * * MON-FRI").
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug().Str("job", job.Name()).Msg("Running job")

		if err := job.Run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Job failed")
		} else {
			s.log.Debug().Str("job", job.Name()).Msg("Job completed")
		}
	})

	if err != nil {
		return err
	}

	s.entries = append(s.entries, jobEntry{id: id, name: job.Name(), schedule: schedule})

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// Jobs returns the registered jobs with their last and next run times.
// Next runs are zero until the scheduler has been started.
func (s *Scheduler) Jobs() []JobStatus {
	statuses := make([]JobStatus, 0, len(s.entries))
	for _, e := range s.entries {
		entry := s.cron.Entry(e.id)
		statuses = append(statuses, JobStatus{
			Name:     e.name,
			Schedule: e.schedule,
			PrevRun:  entry.Prev,
			NextRun:  entry.Next,
		})
	}
	return statuses
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}
