// Package snapshots keeps an append-only record of valuation runs. Each
// run is stored under a generated id with the full engine output encoded
// as msgpack, so past runs can be replayed or audited byte-for-byte.
package snapshots

import (
	"errors"
	"time"

	"github.com/aristath/ballast/internal/modules/engine"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("valuation run not found")

// RunSummary is the listing view of a stored run: identity and lifecycle
// columns only, no payload.
type RunSummary struct {
	ID            string    `json:"id"`
	IndexID       string    `json:"index_id"`
	ValuationDate time.Time `json:"valuation_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// Run is a fully decoded valuation run.
type Run struct {
	RunSummary
	Result *engine.ValuationResult `json:"result"`
}
