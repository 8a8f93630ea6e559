package funding

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
)

// StoreSource serves funding rates from the repository, falling back to
// the most recent prior fixing when the requested date has none. The
// fallback is bounded: a fixing older than the staleness limit is treated
// as missing rather than silently reused.
type StoreSource struct {
	repo       *Repository
	staleLimit int // calendar days
	log        zerolog.Logger
}

// NewStoreSource creates a store-backed funding-rate source. staleLimit
// is the maximum age in calendar days a fallback fixing may have.
func NewStoreSource(repo *Repository, staleLimit int, log zerolog.Logger) *StoreSource {
	return &StoreSource{
		repo:       repo,
		staleLimit: staleLimit,
		log:        log.With().Str("component", "funding_source").Logger(),
	}
}

// FundingRate implements the engine's FundingRateSource.
func (s *StoreSource) FundingRate(ctx context.Context, date time.Time) (float64, error) {
	fixing, ok, err := s.repo.LatestAtOrBefore(ctx, date)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("no funding fixing at or before %s", date.Format(calendar.DateLayout))
	}

	age := int(date.Sub(fixing.Date).Hours() / 24)
	if age > s.staleLimit {
		return 0, fmt.Errorf("funding fixing for %s is %d days old, staleness limit is %d",
			date.Format(calendar.DateLayout), age, s.staleLimit)
	}
	if age > 0 {
		s.log.Debug().
			Str("date", date.Format(calendar.DateLayout)).
			Str("fixing_date", fixing.Date.Format(calendar.DateLayout)).
			Int("age_days", age).
			Msg("Using prior funding fixing")
	}
	return fixing.Rate, nil
}

// FixedSource answers every date with the same rate. Used for offline
// runs and indexes whose financing leg is contractual rather than
// observed.
type FixedSource struct {
	Rate float64
}

// FundingRate implements the engine's FundingRateSource.
func (s FixedSource) FundingRate(_ context.Context, _ time.Time) (float64, error) {
	return s.Rate, nil
}
