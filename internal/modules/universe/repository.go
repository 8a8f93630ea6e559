package universe

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
)

// Repository provides access to the daily return history.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new return history accessor
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "universe").Logger(),
	}
}

// UpsertCloses ingests daily closes for one asset, oldest first. Each
// stored row carries the simple return against the previous stored close;
// the first observation an asset ever gets scores zero. Business days
// missing between consecutive points are forward-filled with the prior
// close and a zero return, keeping every series dense on the calendar
// grid. Returns the number of rows written, fills included.
func (r *Repository) UpsertCloses(ctx context.Context, assetID string, cal *calendar.Calendar, points []ClosePoint) (int, error) {
	if assetID == "" {
		return 0, fmt.Errorf("asset id is empty")
	}
	if len(points) == 0 {
		return 0, nil
	}

	sorted := make([]ClosePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO daily_returns (asset_id, date, close, ret)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	prevClose, prevDate, err := r.latestBefore(ctx, tx, assetID, sorted[0].Date)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, point := range sorted {
		// Fill the business days the feed skipped with a flat close.
		if cal != nil && !prevDate.IsZero() {
			for d := cal.AddBusinessDays(prevDate, 1); d.Before(point.Date); d = cal.AddBusinessDays(d, 1) {
				if _, err := stmt.ExecContext(ctx, assetID, d.Format(calendar.DateLayout), prevClose, 0.0); err != nil {
					return 0, fmt.Errorf("failed to forward-fill %s %s: %w", assetID, d.Format(calendar.DateLayout), err)
				}
				written++
			}
		}

		ret := 0.0
		if prevClose > 0 {
			ret = (point.Close - prevClose) / prevClose
		}
		if _, err := stmt.ExecContext(ctx, assetID, point.Date.Format(calendar.DateLayout), point.Close, ret); err != nil {
			return 0, fmt.Errorf("failed to insert %s %s: %w", assetID, point.Date.Format(calendar.DateLayout), err)
		}
		written++

		prevClose = point.Close
		prevDate = point.Date
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit closes: %w", err)
	}

	r.log.Debug().
		Str("asset_id", assetID).
		Int("rows", written).
		Msg("Ingested daily closes")

	return written, nil
}

func (r *Repository) latestBefore(ctx context.Context, tx *sql.Tx, assetID string, date time.Time) (float64, time.Time, error) {
	var close float64
	var dateStr string

	err := tx.QueryRowContext(ctx, `
		SELECT close, date
		FROM daily_returns
		WHERE asset_id = ? AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`, assetID, date.Format(calendar.DateLayout)).Scan(&close, &dateStr)
	if err == sql.ErrNoRows {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to query latest close: %w", err)
	}

	d, err := time.Parse(calendar.DateLayout, dateStr)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to parse stored date %q: %w", dateStr, err)
	}
	return close, d, nil
}

// ReturnSeries fetches an asset's observations at or before the date,
// oldest first. A non-positive limit fetches everything.
func (r *Repository) ReturnSeries(ctx context.Context, assetID string, end time.Time, limit int) ([]Observation, error) {
	query := `
		SELECT asset_id, date, close, ret
		FROM daily_returns
		WHERE asset_id = ? AND date <= ?
		ORDER BY date DESC
	`
	args := []interface{}{assetID, end.Format(calendar.DateLayout)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query return series: %w", err)
	}
	defer rows.Close()

	var series []Observation
	for rows.Next() {
		var obs Observation
		var dateStr string
		if err := rows.Scan(&obs.AssetID, &dateStr, &obs.Close, &obs.Return); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs.Date, err = time.Parse(calendar.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored date %q: %w", dateStr, err)
		}
		series = append(series, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating return series: %w", err)
	}

	// Rows came newest first; callers want chronological order.
	for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
		series[i], series[j] = series[j], series[i]
	}
	return series, nil
}

// LatestDate returns the most recent observation date for an asset, or a
// zero time when the asset has no history.
func (r *Repository) LatestDate(ctx context.Context, assetID string) (time.Time, error) {
	var dateStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT date FROM daily_returns WHERE asset_id = ? ORDER BY date DESC LIMIT 1
	`, assetID).Scan(&dateStr)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest date: %w", err)
	}
	return time.Parse(calendar.DateLayout, dateStr)
}

// ListAssets returns every asset id with stored history.
func (r *Repository) ListAssets(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT asset_id FROM daily_returns ORDER BY asset_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan asset id: %w", err)
		}
		assets = append(assets, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

// CountObservations returns the number of stored rows for an asset at or
// before the date.
func (r *Repository) CountObservations(ctx context.Context, assetID string, end time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM daily_returns WHERE asset_id = ? AND date <= ?
	`, assetID, end.Format(calendar.DateLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}
