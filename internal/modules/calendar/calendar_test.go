package calendar

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func date(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestIsBusinessDay_Weekend(t *testing.T) {
	cal := New("TEST", nil)

	assert.False(t, cal.IsBusinessDay(date("2026-03-07"))) // Saturday
	assert.False(t, cal.IsBusinessDay(date("2026-03-08"))) // Sunday
	assert.True(t, cal.IsBusinessDay(date("2026-03-09")))  // Monday
}

func TestIsBusinessDay_Holiday(t *testing.T) {
	cal := New("TEST", []time.Time{date("2026-03-09")})

	assert.False(t, cal.IsBusinessDay(date("2026-03-09")))
	assert.True(t, cal.IsBusinessDay(date("2026-03-10")))
}

func TestAddBusinessDays_BackwardOverWeekend(t *testing.T) {
	cal := New("TEST", nil)

	// Monday minus one business day is Friday
	prior := cal.AddBusinessDays(date("2026-03-09"), -1)
	assert.Equal(t, date("2026-03-06"), prior)
}

func TestAddBusinessDays_BackwardOverHoliday(t *testing.T) {
	// Friday 2026-03-06 is a holiday, so Monday walks back to Thursday
	cal := New("TEST", []time.Time{date("2026-03-06")})

	prior := cal.AddBusinessDays(date("2026-03-09"), -1)
	assert.Equal(t, date("2026-03-05"), prior)
}

func TestAddBusinessDays_Forward(t *testing.T) {
	cal := New("TEST", nil)

	// Friday plus two business days is Tuesday
	next := cal.AddBusinessDays(date("2026-03-06"), 2)
	assert.Equal(t, date("2026-03-10"), next)
}

func TestAddBusinessDays_ZeroOffset(t *testing.T) {
	cal := New("TEST", nil)

	// Zero offset returns the input even on a weekend
	assert.Equal(t, date("2026-03-07"), cal.AddBusinessDays(date("2026-03-07"), 0))
}

func TestBusinessDayPairs_ChainsBackward(t *testing.T) {
	cal := New("TEST", nil)

	pairs := cal.BusinessDayPairs(date("2026-03-10"), 3) // Tuesday

	require.Len(t, pairs, 3)
	assert.Equal(t, date("2026-03-10"), pairs[0].Date)
	assert.Equal(t, date("2026-03-09"), pairs[0].Prior)
	assert.Equal(t, date("2026-03-09"), pairs[1].Date)
	assert.Equal(t, date("2026-03-06"), pairs[1].Prior) // over the weekend
	assert.Equal(t, date("2026-03-06"), pairs[2].Date)
	assert.Equal(t, date("2026-03-05"), pairs[2].Prior)
}

func TestDayPair_DaysBetween(t *testing.T) {
	pair := DayPair{Date: date("2026-03-09"), Prior: date("2026-03-06")}
	assert.Equal(t, 3, pair.DaysBetween())

	adjacent := DayPair{Date: date("2026-03-10"), Prior: date("2026-03-09")}
	assert.Equal(t, 1, adjacent.DaysBetween())
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE holidays (
			calendar TEXT NOT NULL,
			date     TEXT NOT NULL,
			PRIMARY KEY (calendar, date)
		)
	`)
	require.NoError(t, err)

	return db
}

func TestRepository_LoadBuildsCalendar(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	require.NoError(t, repo.SaveHoliday("TARGET", date("2026-04-03"))) // Good Friday
	require.NoError(t, repo.SaveHoliday("TARGET", date("2026-04-06"))) // Easter Monday

	cal, err := repo.Load("TARGET")
	require.NoError(t, err)

	assert.False(t, cal.IsBusinessDay(date("2026-04-03")))
	assert.False(t, cal.IsBusinessDay(date("2026-04-06")))
	// Tuesday after Easter Monday walks back four calendar days to Thursday
	assert.Equal(t, date("2026-04-02"), cal.PriorBusinessDay(date("2026-04-07")))
}

func TestRepository_LoadUnknownCalendarIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	cal, err := repo.Load("UNKNOWN")
	require.NoError(t, err)
	assert.True(t, cal.IsBusinessDay(date("2026-03-09")))
}
