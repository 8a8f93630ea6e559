// Package funding stores daily money-market fixings and serves them to
// the engine with a bounded look-back for dates without a fixing of
// their own.
package funding

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
)

// Fixing is one stored funding-rate observation.
type Fixing struct {
	Date   time.Time `json:"date"`
	Rate   float64   `json:"rate"`
	Source string    `json:"source"`
}

// Repository provides access to the funding-rate fixings.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new funding-rate accessor
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "funding").Logger(),
	}
}

// SaveFixing upserts the rate observed on a date.
func (r *Repository) SaveFixing(ctx context.Context, date time.Time, rate float64, source string) error {
	if source == "" {
		source = "manual"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO funding_rates (date, rate, source)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET rate = excluded.rate, source = excluded.source
	`, date.Format(calendar.DateLayout), rate, source)
	if err != nil {
		return fmt.Errorf("failed to save funding fixing: %w", err)
	}

	r.log.Debug().
		Str("date", date.Format(calendar.DateLayout)).
		Float64("rate", rate).
		Str("source", source).
		Msg("Saved funding fixing")
	return nil
}

// LatestAtOrBefore returns the most recent fixing at or before the date.
// The boolean is false when the store has nothing that old.
func (r *Repository) LatestAtOrBefore(ctx context.Context, date time.Time) (Fixing, bool, error) {
	var f Fixing
	var dateStr string

	err := r.db.QueryRowContext(ctx, `
		SELECT date, rate, source
		FROM funding_rates
		WHERE date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, date.Format(calendar.DateLayout)).Scan(&dateStr, &f.Rate, &f.Source)
	if err == sql.ErrNoRows {
		return Fixing{}, false, nil
	}
	if err != nil {
		return Fixing{}, false, fmt.Errorf("failed to query funding fixing: %w", err)
	}

	f.Date, err = time.Parse(calendar.DateLayout, dateStr)
	if err != nil {
		return Fixing{}, false, fmt.Errorf("failed to parse stored date %q: %w", dateStr, err)
	}
	return f, true, nil
}

// ListFixings returns fixings in a date range, oldest first.
func (r *Repository) ListFixings(ctx context.Context, from, to time.Time) ([]Fixing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, rate, source
		FROM funding_rates
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, from.Format(calendar.DateLayout), to.Format(calendar.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list funding fixings: %w", err)
	}
	defer rows.Close()

	var fixings []Fixing
	for rows.Next() {
		var f Fixing
		var dateStr string
		if err := rows.Scan(&dateStr, &f.Rate, &f.Source); err != nil {
			return nil, fmt.Errorf("failed to scan funding fixing: %w", err)
		}
		f.Date, err = time.Parse(calendar.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored date %q: %w", dateStr, err)
		}
		fixings = append(fixings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funding fixings: %w", err)
	}
	return fixings, nil
}
