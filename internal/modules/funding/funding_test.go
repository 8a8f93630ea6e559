package funding

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/ballast/internal/modules/calendar"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE funding_rates (
			date       TEXT PRIMARY KEY,
			rate       REAL NOT NULL,
			source     TEXT NOT NULL DEFAULT 'manual',
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		)
	`)
	require.NoError(t, err)

	return db
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(calendar.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestStoreSource_ExactFixing(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.SaveFixing(ctx, date(t, "2026-03-05"), 0.032, "feed"))

	source := NewStoreSource(repo, 7, zerolog.Nop())
	rate, err := source.FundingRate(ctx, date(t, "2026-03-05"))
	require.NoError(t, err)
	assert.Equal(t, 0.032, rate)
}

func TestStoreSource_FallsBackWithinLimit(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	// Friday's fixing serves the following Monday.
	require.NoError(t, repo.SaveFixing(ctx, date(t, "2026-03-06"), 0.030, "feed"))

	source := NewStoreSource(repo, 7, zerolog.Nop())
	rate, err := source.FundingRate(ctx, date(t, "2026-03-09"))
	require.NoError(t, err)
	assert.Equal(t, 0.030, rate)
}

func TestStoreSource_StaleFixingRejected(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.SaveFixing(ctx, date(t, "2026-02-02"), 0.030, "feed"))

	source := NewStoreSource(repo, 7, zerolog.Nop())
	_, err := source.FundingRate(ctx, date(t, "2026-03-09"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staleness limit")
}

func TestStoreSource_EmptyStore(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	source := NewStoreSource(repo, 7, zerolog.Nop())
	_, err := source.FundingRate(context.Background(), date(t, "2026-03-09"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no funding fixing")
}

func TestSaveFixing_UpsertsOnConflict(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.SaveFixing(ctx, date(t, "2026-03-05"), 0.030, "feed"))
	require.NoError(t, repo.SaveFixing(ctx, date(t, "2026-03-05"), 0.031, "feed"))

	fixing, ok, err := repo.LatestAtOrBefore(ctx, date(t, "2026-03-05"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.031, fixing.Rate)
}

func TestListFixings_RangeIsInclusive(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	for _, day := range []string{"2026-03-03", "2026-03-04", "2026-03-05"} {
		require.NoError(t, repo.SaveFixing(ctx, date(t, day), 0.03, "feed"))
	}

	fixings, err := repo.ListFixings(ctx, date(t, "2026-03-03"), date(t, "2026-03-04"))
	require.NoError(t, err)
	require.Len(t, fixings, 2)
	assert.Equal(t, date(t, "2026-03-03"), fixings[0].Date)
	assert.Equal(t, date(t, "2026-03-04"), fixings[1].Date)
}

func TestFixedSource(t *testing.T) {
	source := FixedSource{Rate: 0.025}

	rate, err := source.FundingRate(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.025, rate)
}
