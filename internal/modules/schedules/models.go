// Package schedules validates contractual schedules: every call window
// must sit inside the union of conversion windows, checked from a build
// date onward. Periods already in the past are not validated.
package schedules

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/ballast/internal/modules/calendar"
)

// Interval is a date range, inclusive on both ends. Two intervals chain
// when one ends exactly where the next starts; a day between them is a
// gap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Validate checks the interval for a usable orientation
func (iv Interval) Validate() error {
	if iv.End.Before(iv.Start) {
		return fmt.Errorf("interval end %s before start %s",
			iv.End.Format(calendar.DateLayout), iv.Start.Format(calendar.DateLayout))
	}
	return nil
}

// String renders the interval for violation messages.
func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s]", iv.Start.Format(calendar.DateLayout), iv.End.Format(calendar.DateLayout))
}

type intervalJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MarshalJSON renders the bounds as plain dates.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal(intervalJSON{
		Start: iv.Start.Format(calendar.DateLayout),
		End:   iv.End.Format(calendar.DateLayout),
	})
}

// UnmarshalJSON parses plain-date bounds.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var wire intervalJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	start, err := time.Parse(calendar.DateLayout, wire.Start)
	if err != nil {
		return fmt.Errorf("invalid interval start %q: %w", wire.Start, err)
	}
	end, err := time.Parse(calendar.DateLayout, wire.End)
	if err != nil {
		return fmt.Errorf("invalid interval end %q: %w", wire.End, err)
	}

	iv.Start = start
	iv.End = end
	return nil
}

// Violation describes one call window that escapes the conversion
// coverage, with the uncovered stretches.
type Violation struct {
	// Index is the call window's position in the submitted schedule.
	Index int `json:"index"`

	// Call is the window after clipping to the build date.
	Call Interval `json:"call"`

	// Gaps lists the uncovered stretches inside the call window.
	Gaps []Interval `json:"gaps"`
}

// Result is the outcome of one schedule validation.
type Result struct {
	Valid bool `json:"valid"`

	// Coverage is the merged conversion schedule from the build date on.
	Coverage []Interval `json:"coverage"`

	// Violations lists the call windows that escape the coverage.
	Violations []Violation `json:"violations,omitempty"`
}
