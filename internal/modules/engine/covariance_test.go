package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCovariance_TrailingWindow(t *testing.T) {
	// Leading observations are junk; only the last three may enter.
	returns := [][]float64{
		{9.9, -9.9, 0.01, 0.02, 0.03},
		{-5.0, 5.0, 0.02, 0.04, 0.06},
	}

	cov, err := Covariance(returns, 3)
	require.NoError(t, err)
	require.Equal(t, 2, cov.SymmetricDim())

	// Sample statistics of the trailing windows, N-1 denominator.
	assert.InDelta(t, 1e-4, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 4e-4, cov.At(1, 1), 1e-12)
	assert.InDelta(t, 2e-4, cov.At(0, 1), 1e-12)
	assert.Equal(t, cov.At(0, 1), cov.At(1, 0), "matrix should be symmetric")
}

func TestCovariance_IndependentWindows(t *testing.T) {
	// The short and long estimates are separate computations over their
	// own trailing windows, so they disagree whenever the extra history
	// carries different variance.
	series := make([]float64, 10)
	for i := range series {
		if i < 7 {
			series[i] = 0.05 // volatile early stretch
		}
		if i%2 == 0 {
			series[i] = -series[i]
		}
	}
	returns := [][]float64{series}

	short, err := Covariance(returns, 3)
	require.NoError(t, err)
	long, err := Covariance(returns, 10)
	require.NoError(t, err)

	assert.NotEqual(t, long.At(0, 0), short.At(0, 0))
}

func TestCovariance_InsufficientHistory(t *testing.T) {
	returns := [][]float64{{0.01, 0.02}}

	_, err := Covariance(returns, 3)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestCovariance_WindowTooSmall(t *testing.T) {
	returns := [][]float64{{0.01, 0.02, 0.03}}

	_, err := Covariance(returns, 1)
	assert.ErrorIs(t, err, ErrConfigurationMismatch)
}

func TestCovariance_RaggedMatrix(t *testing.T) {
	returns := [][]float64{
		{0.01, 0.02, 0.03},
		{0.01, 0.02},
	}

	_, err := Covariance(returns, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged")
}

func TestCovariance_NoSeries(t *testing.T) {
	_, err := Covariance(nil, 2)
	assert.Error(t, err)
}
