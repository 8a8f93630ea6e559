// Package server provides the HTTP server and routing for Ballast.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/ballast/internal/database"
	"github.com/aristath/ballast/internal/scheduler"
)

// RatesFeed reports the state of the funding-rate feed connection.
type RatesFeed interface {
	IsConnected() bool
	LastReceived() time.Time
}

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	reportsDir  string
	startupTime time.Time
	databases   map[string]*database.DB
	feed        RatesFeed // nil when the feed is disabled

	// Set after job registration in main.go
	scheduler      *scheduler.Scheduler
	valuationJob   scheduler.Job
	backupJob      scheduler.Job
	maintenanceJob scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	reportsDir string,
	databases map[string]*database.DB,
	feed RatesFeed,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		reportsDir:  reportsDir,
		startupTime: time.Now(),
		databases:   databases,
		feed:        feed,
	}
}

// SetJobs registers the scheduler and job references for status reporting
// and manual triggering. Called after jobs are registered in main.go.
func (h *SystemHandlers) SetJobs(sched *scheduler.Scheduler, valuation, backup, maintenance scheduler.Job) {
	h.scheduler = sched
	h.valuationJob = valuation
	h.backupJob = backup
	h.maintenanceJob = maintenance
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	StartedAt     string  `json:"started_at"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
}

// JobsStatusResponse represents scheduler job status
type JobsStatusResponse struct {
	TotalJobs int       `json:"total_jobs"`
	Jobs      []JobInfo `json:"jobs"`
}

// JobInfo represents information about a single job
type JobInfo struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	PrevRun  string `json:"prev_run,omitempty"`
	NextRun  string `json:"next_run,omitempty"`
}

// FeedStatusResponse represents the rates feed connection status
type FeedStatusResponse struct {
	Enabled      bool   `json:"enabled"`
	Connected    bool   `json:"connected"`
	LastReceived string `json:"last_received,omitempty"`
	LastCheck    string `json:"last_check"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
	FreePages int64   `json:"free_pages"`
}

// DiskUsageResponse represents disk usage statistics
type DiskUsageResponse struct {
	DataDirMB   float64 `json:"data_dir_mb"`
	ReportsMB   float64 `json:"reports_mb"`
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// HandleSystemStatus returns process-level health: uptime, CPU and RAM usage
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		StartedAt:     h.startupTime.Format(time.RFC3339),
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
	}

	h.writeJSON(w, response)
}

// HandleJobsStatus returns the registered scheduler jobs with their
// schedules and run times
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting jobs status")

	jobs := []JobInfo{}
	if h.scheduler != nil {
		for _, status := range h.scheduler.Jobs() {
			info := JobInfo{
				Name:     status.Name,
				Schedule: status.Schedule,
			}
			if !status.PrevRun.IsZero() {
				info.PrevRun = status.PrevRun.Format(time.RFC3339)
			}
			if !status.NextRun.IsZero() {
				info.NextRun = status.NextRun.Format(time.RFC3339)
			}
			jobs = append(jobs, info)
		}
	}

	response := JobsStatusResponse{
		TotalJobs: len(jobs),
		Jobs:      jobs,
	}

	h.writeJSON(w, response)
}

// HandleFeedStatus returns the rates feed connection status
func (h *SystemHandlers) HandleFeedStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting feed status")

	response := FeedStatusResponse{
		LastCheck: time.Now().Format(time.RFC3339),
	}

	if h.feed != nil {
		response.Enabled = true
		response.Connected = h.feed.IsConnected()
		if last := h.feed.LastReceived(); !last.IsZero() {
			response.LastReceived = last.Format(time.RFC3339)
		}
	}

	h.writeJSON(w, response)
}

// HandleDatabaseStats returns per-database size and page statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	databases := []DBInfo{}
	totalSizeMB := 0.0

	for name, db := range h.databases {
		if db == nil {
			continue
		}

		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Failed to get database stats")
			continue
		}

		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		totalSizeMB += sizeMB

		databases = append(databases, DBInfo{
			Name:      name,
			Path:      db.Path(),
			SizeMB:    sizeMB,
			WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount: stats.PageCount,
			FreePages: stats.FreelistCount,
		})
	}

	response := DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, response)
}

// HandleDiskUsage returns disk usage statistics for the data and reports
// directories plus free space on the data volume
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	dataDirMB := h.getDirSize(h.dataDir)
	reportsMB := h.getDirSize(h.reportsDir)

	response := DiskUsageResponse{
		DataDirMB: dataDirMB,
		ReportsMB: reportsMB,
		TotalMB:   dataDirMB + reportsMB,
	}

	if usage, err := disk.Usage(h.dataDir); err == nil {
		response.FreeMB = float64(usage.Free) / 1024 / 1024
		response.UsedPercent = usage.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	h.writeJSON(w, response)
}

// HandleTriggerValuation runs the valuation job immediately
// POST /api/system/jobs/valuation
func (h *SystemHandlers) HandleTriggerValuation(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.valuationJob)
}

// HandleTriggerBackup runs the backup job immediately
// POST /api/system/jobs/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.backupJob)
}

// HandleTriggerMaintenance runs the maintenance job immediately
// POST /api/system/jobs/maintenance
func (h *SystemHandlers) HandleTriggerMaintenance(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.maintenanceJob)
}

// triggerJob runs a job in the background and reports that it started.
// Jobs log their own outcome; a trigger only fails when the job is not
// registered.
func (h *SystemHandlers) triggerJob(w http.ResponseWriter, job scheduler.Job) {
	if job == nil {
		h.log.Warn().Msg("Job trigger requested before registration")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Job not registered",
		})
		return
	}

	h.log.Info().Str("job", job.Name()).Msg("Manual job trigger")

	go func() {
		if err := job.Run(); err != nil {
			h.log.Error().Err(err).Str("job", job.Name()).Msg("Manually triggered job failed")
		}
	}()

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("%s job triggered", job.Name()),
	})
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sampling interval so the status endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// writeJSON writes a JSON response with status 200
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
