package schedules

import (
	"fmt"
	"sort"
	"time"
)

// ClipToBuildDate drops intervals that end before the build date and
// clamps the remaining starts to it.
func ClipToBuildDate(intervals []Interval, buildDate time.Time) []Interval {
	var clipped []Interval
	for _, iv := range intervals {
		if iv.End.Before(buildDate) {
			continue
		}
		if iv.Start.Before(buildDate) {
			iv.Start = buildDate
		}
		clipped = append(clipped, iv)
	}
	return clipped
}

// Merge sorts intervals and joins the ones that overlap or touch
// end-to-start, yielding disjoint coverage pieces in ascending order.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start.After(last.End) {
			merged = append(merged, iv)
			continue
		}
		if iv.End.After(last.End) {
			last.End = iv.End
		}
	}
	return merged
}

// Validate checks every call window against the union of conversion
// windows, both clipped to the build date. A call window is valid when
// the merged coverage contains it without interruption; anything else
// produces a violation listing the uncovered stretches.
func Validate(conversions, calls []Interval, buildDate time.Time) (*Result, error) {
	for i, iv := range conversions {
		if err := iv.Validate(); err != nil {
			return nil, fmt.Errorf("conversion interval %d: %w", i, err)
		}
	}
	for i, iv := range calls {
		if err := iv.Validate(); err != nil {
			return nil, fmt.Errorf("call interval %d: %w", i, err)
		}
	}

	coverage := Merge(ClipToBuildDate(conversions, buildDate))

	result := &Result{Valid: true, Coverage: coverage}
	for i, call := range calls {
		if call.End.Before(buildDate) {
			continue
		}
		if call.Start.Before(buildDate) {
			call.Start = buildDate
		}

		gaps := uncovered(call, coverage)
		if len(gaps) == 0 {
			continue
		}

		result.Valid = false
		result.Violations = append(result.Violations, Violation{
			Index: i,
			Call:  call,
			Gaps:  gaps,
		})
	}
	return result, nil
}

// uncovered sweeps the coverage across a call window and collects the
// stretches no coverage piece reaches. An empty result means the window
// is fully contained.
func uncovered(call Interval, coverage []Interval) []Interval {
	for _, cov := range coverage {
		if !cov.Start.After(call.Start) && !call.End.After(cov.End) {
			return nil
		}
	}

	var gaps []Interval
	cursor := call.Start
	for _, cov := range coverage {
		if cov.End.Before(cursor) {
			continue
		}
		if cov.Start.After(call.End) {
			break
		}
		if cov.Start.After(cursor) {
			gapEnd := cov.Start
			if call.End.Before(gapEnd) {
				gapEnd = call.End
			}
			gaps = append(gaps, Interval{Start: cursor, End: gapEnd})
		}
		if cov.End.After(cursor) {
			cursor = cov.End
		}
	}
	if cursor.Before(call.End) {
		gaps = append(gaps, Interval{Start: cursor, End: call.End})
	}

	// A window collapsed to a single uncovered date produces no sweep
	// gap; report the window itself.
	if len(gaps) == 0 {
		gaps = []Interval{call}
	}
	return gaps
}
