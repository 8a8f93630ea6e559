package calendar

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository loads holiday sets from the history database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new calendar repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "calendar_repository").Logger(),
	}
}

// GetHolidays returns all holiday dates stored for a calendar name
func (r *Repository) GetHolidays(calendarName string) ([]time.Time, error) {
	rows, err := r.db.Query(
		`SELECT date FROM holidays WHERE calendar = ? ORDER BY date ASC`,
		calendarName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays for %s: %w", calendarName, err)
	}
	defer rows.Close()

	var holidays []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan holiday row: %w", err)
		}

		d, err := time.Parse(DateLayout, raw)
		if err != nil {
			r.log.Warn().Str("date", raw).Str("calendar", calendarName).Msg("Skipping malformed holiday date")
			continue
		}
		holidays = append(holidays, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("holiday row iteration failed: %w", err)
	}

	return holidays, nil
}

// SaveHoliday records a single holiday date for a calendar
func (r *Repository) SaveHoliday(calendarName string, date time.Time) error {
	_, err := r.db.Exec(
		`INSERT OR IGNORE INTO holidays (calendar, date) VALUES (?, ?)`,
		calendarName, date.Format(DateLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// Load builds a Calendar for the named holiday set
func (r *Repository) Load(calendarName string) (*Calendar, error) {
	holidays, err := r.GetHolidays(calendarName)
	if err != nil {
		return nil, err
	}
	return New(calendarName, holidays), nil
}
