package universe

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/engine"
)

// ReturnMatrix assembles the aligned N x L return matrix for a list of
// assets, implementing the engine's ReturnHistoryProvider. Every series
// must end on the same date; ingest-time forward-filling keeps series
// dense, so aligning them reduces to trimming all of them to the shortest
// one's length. minLength is enforced here so a thin asset fails the
// valuation before any window math runs.
func (r *Repository) ReturnMatrix(ctx context.Context, assetIDs []string, valuationDate time.Time, minLength int) ([][]float64, error) {
	if len(assetIDs) == 0 {
		return nil, fmt.Errorf("no assets requested")
	}

	matrix := make([][]float64, len(assetIDs))
	lastDates := make([]time.Time, len(assetIDs))
	shortest := -1

	for i, assetID := range assetIDs {
		series, err := r.ReturnSeries(ctx, assetID, valuationDate, 0)
		if err != nil {
			return nil, err
		}
		if len(series) < minLength {
			return nil, fmt.Errorf("%w: asset %s has %d observations at %s, need %d",
				engine.ErrInsufficientHistory, assetID, len(series),
				valuationDate.Format(calendar.DateLayout), minLength)
		}

		returns := make([]float64, len(series))
		for k, obs := range series {
			returns[k] = obs.Return
		}
		matrix[i] = returns
		lastDates[i] = series[len(series)-1].Date

		if shortest < 0 || len(returns) < shortest {
			shortest = len(returns)
		}
	}

	// A series ending earlier than its peers means the asset went stale,
	// and tail-trimming would silently misalign dates.
	for i := 1; i < len(lastDates); i++ {
		if !lastDates[i].Equal(lastDates[0]) {
			return nil, fmt.Errorf("history for %s ends %s but %s ends %s",
				assetIDs[i], lastDates[i].Format(calendar.DateLayout),
				assetIDs[0], lastDates[0].Format(calendar.DateLayout))
		}
	}

	for i := range matrix {
		matrix[i] = matrix[i][len(matrix[i])-shortest:]
	}
	return matrix, nil
}
