package snapshots

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/engine"
)

// Repository stores valuation runs in the snapshots database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new valuation run accessor
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "snapshots").Logger(),
	}
}

// Save persists one run and returns its generated id. Runs are never
// updated; a re-valuation of the same index and date gets a fresh id.
func (r *Repository) Save(ctx context.Context, result *engine.ValuationResult) (string, error) {
	payload, err := msgpack.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode run payload: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO valuation_runs (id, index_id, valuation_date, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, result.IndexID, result.ValuationDate.Format(calendar.DateLayout), payload, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to save run for %s: %w", result.IndexID, err)
	}

	r.log.Info().
		Str("run_id", id).
		Str("index_id", result.IndexID).
		Str("valuation_date", result.ValuationDate.Format(calendar.DateLayout)).
		Int("payload_bytes", len(payload)).
		Msg("Saved valuation run")
	return id, nil
}

// Get loads and decodes one run by id.
func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, index_id, valuation_date, payload, created_at
		FROM valuation_runs
		WHERE id = ?
	`, id)

	var run Run
	var dateStr string
	var payload []byte
	var createdAt int64

	err := row.Scan(&run.ID, &run.IndexID, &dateStr, &payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	run.ValuationDate, err = time.Parse(calendar.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid valuation date on run %s: %w", id, err)
	}
	run.CreatedAt = time.Unix(createdAt, 0).UTC()

	var result engine.ValuationResult
	if err := msgpack.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	run.Result = &result
	return &run, nil
}

// List returns run summaries newest first. An empty indexID lists runs
// across all indexes. Limit caps the result; zero or negative means the
// default of 100.
func (r *Repository) List(ctx context.Context, indexID string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, index_id, valuation_date, created_at
		FROM valuation_runs
	`
	args := []interface{}{}
	if indexID != "" {
		query += " WHERE index_id = ?"
		args = append(args, indexID)
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var dateStr string
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.IndexID, &dateStr, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		s.ValuationDate, err = time.Parse(calendar.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid valuation date on run %s: %w", s.ID, err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return summaries, nil
}

// Latest returns the most recent run for an index, or ErrNotFound when
// the index has never been valuated.
func (r *Repository) Latest(ctx context.Context, indexID string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id FROM valuation_runs
		WHERE index_id = ?
		ORDER BY created_at DESC, id LIMIT 1
	`, indexID)

	var id string
	err := row.Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no runs for index %s", ErrNotFound, indexID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest run for %s: %w", indexID, err)
	}
	return r.Get(ctx, id)
}
