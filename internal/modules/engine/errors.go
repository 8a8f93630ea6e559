package engine

import "errors"

var (
	// ErrInsufficientHistory indicates the return history is shorter than
	// the longest required lookback. The computation for that valuation
	// date is aborted; retrying without new history reproduces the error.
	ErrInsufficientHistory = errors.New("insufficient return history")

	// ErrConfigurationMismatch indicates the index configuration is
	// internally inconsistent (rank table length, contribution shape,
	// missing target). The configuration must be fixed before retrying.
	ErrConfigurationMismatch = errors.New("index configuration mismatch")
)
