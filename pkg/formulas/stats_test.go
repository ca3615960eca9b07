package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanAndStdDev(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))

	assert.Equal(t, 0.0, StdDev([]float64{5}))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-12)
}

func TestCalculateReturns(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{100}))

	returns := CalculateReturns([]float64{100, 110, 99, 0, 10})
	require.Len(t, returns, 4)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
	assert.InDelta(t, -1.0, returns[2], 1e-12)
	assert.Equal(t, 0.0, returns[3], "zero base yields zero return")
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100}))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 101, 102}))
	assert.InDelta(t, -0.25, MaxDrawdown([]float64{100, 120, 90, 110, 100}), 1e-12)
}

func TestSMASeries(t *testing.T) {
	assert.Nil(t, SMASeries([]float64{1, 2}, 3))
	assert.Nil(t, SMASeries([]float64{1, 2, 3}, 0))

	sma := SMASeries([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, sma, 5)
	assert.Nil(t, sma[0])
	assert.Nil(t, sma[1])
	require.NotNil(t, sma[2])
	assert.InDelta(t, 2.0, *sma[2], 1e-12)
	assert.InDelta(t, 4.0, *sma[4], 1e-12)
}
