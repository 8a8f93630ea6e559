package reliability

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/database"
)

// BackupService produces consistent point-in-time copies of the sqlite
// databases. VACUUM INTO gives a compacted snapshot without blocking
// writers, so backups can run while the engine is valuating.
type BackupService struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(databases map[string]*database.DB, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// DatabaseNames returns the backed-up database names, sorted for stable
// archive layouts.
func (s *BackupService) DatabaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackupDatabase writes a consistent copy of one database to destPath
func (s *BackupService) BackupDatabase(ctx context.Context, name, destPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("unknown database %q", name)
	}

	// VACUUM INTO does not accept bound parameters; escape quotes in the
	// path instead.
	quoted := strings.ReplaceAll(destPath, "'", "''")
	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return fmt.Errorf("failed to snapshot %s: %w", name, err)
	}

	s.log.Debug().
		Str("database", name).
		Str("dest", destPath).
		Msg("Database snapshot written")
	return nil
}
