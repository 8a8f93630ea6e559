// Package reports writes per-valuation weight reports as CSV files. The
// shape is one row per asset under a Date,Underlier,Weight header, the
// format downstream index administration tooling ingests.
package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/engine"
)

// Writer persists weight reports under a single reports directory.
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter creates a report writer rooted at dir. The directory is
// created on first write.
func NewWriter(dir string, log zerolog.Logger) *Writer {
	return &Writer{
		dir: dir,
		log: log.With().Str("component", "reports").Logger(),
	}
}

// Dir returns the reports directory, for backup inclusion.
func (w *Writer) Dir() string {
	return w.dir
}

// Write emits one CSV report for a valuation result and returns the file
// path. With scaled set the rows carry the final index weights; otherwise
// the raw initial weights.
func (w *Writer) Write(result *engine.ValuationResult, scaled bool) (string, error) {
	if result == nil || result.Result == nil {
		return "", fmt.Errorf("cannot write report: empty valuation result")
	}
	if len(result.AssetIDs) != len(result.Result.InitialWeights) {
		return "", fmt.Errorf("cannot write report: %d asset ids for %d weights",
			len(result.AssetIDs), len(result.Result.InitialWeights))
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	weights := result.Result.InitialWeights
	if scaled {
		weights = result.Result.ScaledWeights()
	}

	path := filepath.Join(w.dir, Filename(result.IndexID, result.ValuationDate.Format(calendar.DateLayout), scaled))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"Date", "Underlier", "Weight"}); err != nil {
		return "", fmt.Errorf("failed to write report header: %w", err)
	}

	dateStr := result.ValuationDate.Format(calendar.DateLayout)
	for i, assetID := range result.AssetIDs {
		row := []string{dateStr, assetID, strconv.FormatFloat(weights[i], 'f', -1, 64)}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("failed to write report row for %s: %w", assetID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush report %s: %w", path, err)
	}

	w.log.Info().
		Str("index_id", result.IndexID).
		Str("valuation_date", dateStr).
		Bool("scaled", scaled).
		Str("path", path).
		Msg("Wrote weight report")
	return path, nil
}

// List returns the report filenames in the directory, sorted. A missing
// directory is an empty listing, not an error.
func (w *Writer) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Open returns the full path of a named report after confirming it
// exists inside the reports directory. The name is reduced to its base
// so request paths cannot escape the directory.
func (w *Writer) Open(name string) (string, error) {
	path := filepath.Join(w.dir, filepath.Base(name))
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("report %s not found", name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat report %s: %w", name, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("report %s not found", name)
	}
	return path, nil
}

// Filename builds the date-stamped report filename for an index.
func Filename(indexID, dateStr string, scaled bool) string {
	if scaled {
		return fmt.Sprintf("weights_%s_%s.csv", indexID, dateStr)
	}
	return fmt.Sprintf("weights_%s_%s_unscaled.csv", indexID, dateStr)
}
