package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/events"
)

const (
	backupPrefix     = "ballast-backup-"
	backupTimeLayout = "2006-01-02-150405"

	// minBackupsToKeep backups always survive rotation regardless of age
	minBackupsToKeep = 3
)

// R2BackupService manages cloud backups of the databases and the
// generated weight reports.
type R2BackupService struct {
	r2Client      *R2Client
	backupService *BackupService
	dataDir       string
	reportsDir    string
	bus           *events.Bus
	log           zerolog.Logger
}

// BackupMetadata describes the contents of one backup archive
type BackupMetadata struct {
	Timestamp time.Time      `json:"timestamp"`
	Databases []FileMetadata `json:"databases"`
	Reports   []FileMetadata `json:"reports"`
}

// FileMetadata describes a single file in the backup
type FileMetadata struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents a backup archive stored in the bucket
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// archiveEntry maps a file on disk to its name inside the archive
type archiveEntry struct {
	sourcePath    string
	nameInArchive string
}

// NewR2BackupService creates a new cloud backup service
func NewR2BackupService(
	r2Client *R2Client,
	backupService *BackupService,
	dataDir string,
	reportsDir string,
	bus *events.Bus,
	log zerolog.Logger,
) *R2BackupService {
	return &R2BackupService{
		r2Client:      r2Client,
		backupService: backupService,
		dataDir:       dataDir,
		reportsDir:    reportsDir,
		bus:           bus,
		log:           log.With().Str("service", "r2_backup").Logger(),
	}
}

// CreateAndUploadBackup snapshots every database, bundles them with the
// weight reports into a tar.gz archive, and uploads it.
func (s *R2BackupService) CreateAndUploadBackup(ctx context.Context) error {
	s.log.Info().Msg("Starting cloud backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	metadata := BackupMetadata{Timestamp: time.Now().UTC()}
	var entries []archiveEntry

	for _, dbName := range s.backupService.DatabaseNames() {
		snapshotPath := filepath.Join(stagingDir, dbName+".db")

		if err := s.backupService.BackupDatabase(ctx, dbName, snapshotPath); err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", dbName, err)
		}

		meta, err := describeFile(snapshotPath, dbName+".db")
		if err != nil {
			return fmt.Errorf("failed to describe %s snapshot: %w", dbName, err)
		}

		metadata.Databases = append(metadata.Databases, meta)
		entries = append(entries, archiveEntry{
			sourcePath:    snapshotPath,
			nameInArchive: dbName + ".db",
		})
	}

	reportEntries, reportMeta, err := s.collectReports()
	if err != nil {
		return fmt.Errorf("failed to collect reports: %w", err)
	}
	metadata.Reports = reportMeta
	entries = append(entries, reportEntries...)

	metadataPath := filepath.Join(stagingDir, "backup-metadata.json")
	if err := writeMetadata(metadataPath, metadata); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	entries = append(entries, archiveEntry{
		sourcePath:    metadataPath,
		nameInArchive: "backup-metadata.json",
	})

	archiveName := backupPrefix + time.Now().Format(backupTimeLayout) + ".tar.gz"
	archivePath := filepath.Join(stagingDir, archiveName)

	if err := createArchive(archivePath, entries); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.r2Client.Upload(ctx, archiveName, archiveFile, archiveInfo.Size()); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	if s.bus != nil {
		s.bus.EmitTyped(events.BackupCompleted, "reliability", &events.BackupCompletedData{
			Archive:   archiveName,
			SizeBytes: archiveInfo.Size(),
		})
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Int("databases", len(metadata.Databases)).
		Int("reports", len(metadata.Reports)).
		Msg("Cloud backup completed")

	return nil
}

// collectReports gathers the weight report CSVs for inclusion in the
// archive. A missing reports directory is fine: nothing was written yet.
func (s *R2BackupService) collectReports() ([]archiveEntry, []FileMetadata, error) {
	dirEntries, err := os.ReadDir(s.reportsDir)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	var entries []archiveEntry
	var metas []FileMetadata

	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		sourcePath := filepath.Join(s.reportsDir, entry.Name())
		nameInArchive := "reports/" + entry.Name()

		meta, err := describeFile(sourcePath, nameInArchive)
		if err != nil {
			return nil, nil, err
		}

		entries = append(entries, archiveEntry{
			sourcePath:    sourcePath,
			nameInArchive: nameInArchive,
		})
		metas = append(metas, meta)
	}

	return entries, metas, nil
}

// ListBackups lists the backup archives stored in the bucket, newest
// first.
func (s *R2BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.r2Client.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := time.Now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		timestamp, ok := parseBackupTime(*obj.Key)
		if !ok {
			s.log.Warn().Str("filename", *obj.Key).Msg("Skipping object with unparseable name")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  *obj.Key,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than the retention period while
// always keeping the newest few.
func (s *R2BackupService) RotateOldBackups(ctx context.Context, retentionDays int) error {
	s.log.Info().Int("retention_days", retentionDays).Msg("Starting backup rotation")

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}

	expired := selectExpired(backups, retentionDays, time.Now())
	if len(expired) == 0 {
		s.log.Info().Int("count", len(backups)).Msg("No backups due for rotation")
		return nil
	}

	deletedCount := 0
	for _, backup := range expired {
		if err := s.r2Client.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().
				Err(err).
				Str("filename", backup.Filename).
				Msg("Failed to delete old backup")
			continue
		}

		s.log.Info().
			Str("filename", backup.Filename).
			Time("timestamp", backup.Timestamp).
			Msg("Deleted old backup")
		deletedCount++
	}

	s.log.Info().
		Int("deleted", deletedCount).
		Int("remaining", len(backups)-deletedCount).
		Msg("Backup rotation completed")

	return nil
}

// parseBackupTime extracts the timestamp from an archive name like
// ballast-backup-2026-04-07-183000.tar.gz.
func parseBackupTime(filename string) (time.Time, bool) {
	if !strings.HasPrefix(filename, backupPrefix) || !strings.HasSuffix(filename, ".tar.gz") {
		return time.Time{}, false
	}

	stamp := strings.TrimSuffix(strings.TrimPrefix(filename, backupPrefix), ".tar.gz")
	timestamp, err := time.Parse(backupTimeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return timestamp, true
}

// selectExpired returns the backups rotation should delete: older than
// the retention window and beyond the minimum-keep floor. Backups are
// expected newest first. Retention 0 keeps everything.
func selectExpired(backups []BackupInfo, retentionDays int, now time.Time) []BackupInfo {
	if retentionDays <= 0 || len(backups) <= minBackupsToKeep {
		return nil
	}

	cutoff := now.AddDate(0, 0, -retentionDays)

	var expired []BackupInfo
	for i, backup := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if backup.Timestamp.Before(cutoff) {
			expired = append(expired, backup)
		}
	}
	return expired
}

// describeFile stats and checksums one file for the metadata document
func describeFile(path, name string) (FileMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	checksum, err := fileChecksum(path)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("failed to checksum %s: %w", path, err)
	}

	return FileMetadata{
		Name:      name,
		SizeBytes: info.Size(),
		Checksum:  checksum,
	}, nil
}

// fileChecksum computes the SHA-256 digest of a file
func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// writeMetadata writes the backup metadata JSON document
func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive writes a tar.gz archive containing the entries
func createArchive(archivePath string, entries []archiveEntry) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, entry := range entries {
		if err := addFileToArchive(tarWriter, entry.sourcePath, entry.nameInArchive); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", entry.nameInArchive, err)
		}
	}

	return nil
}

// addFileToArchive appends a single file to a tar stream
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	if _, err := io.Copy(tarWriter, file); err != nil {
		return err
	}

	return nil
}
