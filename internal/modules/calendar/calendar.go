// Package calendar provides business-day arithmetic for valuation dates.
package calendar

import (
	"time"
)

// DateLayout is the canonical date format used across databases and APIs.
const DateLayout = "2006-01-02"

// DayPair couples a business day with the business day immediately before
// it. Funding drag is accumulated by folding over a slice of these pairs
// rather than walking dates inside the accumulation loop.
type DayPair struct {
	Date  time.Time
	Prior time.Time
}

// DaysBetween returns the calendar-day gap of the pair, the numerator of
// the ACT/360 day-count fraction.
func (p DayPair) DaysBetween() int {
	return int(p.Date.Sub(p.Prior).Hours() / 24)
}

// Calendar answers business-day questions for one holiday set.
// Saturdays and Sundays are never business days; holidays come from
// configuration per index.
type Calendar struct {
	name     string
	holidays map[string]struct{}
}

// New creates a calendar from a holiday list. Dates are compared by their
// YYYY-MM-DD rendering, so wall-clock components are ignored.
func New(name string, holidays []time.Time) *Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Format(DateLayout)] = struct{}{}
	}
	return &Calendar{name: name, holidays: set}
}

// Name returns the calendar name
func (c *Calendar) Name() string {
	return c.name
}

// IsBusinessDay reports whether the date is a weekday and not a holiday
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[d.Format(DateLayout)]
	return !holiday
}

// AddBusinessDays walks |offset| business days from the date, forward for
// positive offsets and backward for negative ones. A zero offset returns
// the date unchanged, whether or not it is a business day.
func (c *Calendar) AddBusinessDays(d time.Time, offset int) time.Time {
	if offset == 0 {
		return d
	}

	step := 1
	remaining := offset
	if offset < 0 {
		step = -1
		remaining = -offset
	}

	current := d
	for remaining > 0 {
		current = current.AddDate(0, 0, step)
		if c.IsBusinessDay(current) {
			remaining--
		}
	}

	return current
}

// PriorBusinessDay returns the closest business day strictly before the date
func (c *Calendar) PriorBusinessDay(d time.Time) time.Time {
	return c.AddBusinessDays(d, -1)
}

// BusinessDayPairs produces the (date, priorDate) sequence for a backward
// walk of the requested number of steps starting at the valuation date.
// pairs[0].Date is the valuation date itself; each subsequent pair starts
// where the previous one ended.
func (c *Calendar) BusinessDayPairs(valuationDate time.Time, steps int) []DayPair {
	if steps <= 0 {
		return nil
	}

	pairs := make([]DayPair, 0, steps)
	current := valuationDate
	for i := 0; i < steps; i++ {
		prior := c.PriorBusinessDay(current)
		pairs = append(pairs, DayPair{Date: current, Prior: prior})
		current = prior
	}

	return pairs
}
