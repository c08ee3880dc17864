package ndvi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeEmptyValidSet(t *testing.T) {
	g := uniformGrid(3, 3, 0.5)
	for r := range g.Valid {
		for c := range g.Valid[r] {
			g.Valid[r][c] = false
		}
	}

	s := Summarize(g)
	assert.Equal(t, 0, s.ValidCells)
	assert.Equal(t, 9, s.TotalCells)
	assert.Equal(t, 0.0, s.ValidRatio)
	for _, v := range []float64{s.Mean, s.Median, s.Min, s.Max, s.StdDev} {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSummarizeFullyValidWindow(t *testing.T) {
	s := Summarize(uniformGrid(4, 5, 0.25))
	assert.Equal(t, 20, s.ValidCells)
	assert.Equal(t, 20, s.TotalCells)
	assert.Equal(t, 100.0, s.ValidRatio)
	assert.InDelta(t, 0.25, s.Mean, 1e-9)
	assert.InDelta(t, 0.0, s.StdDev, 1e-9)
}

// Pins the standard deviation convention: population, divide by N.
func TestSummarizeGoldenValues(t *testing.T) {
	g := Grid{
		Values: [][]float64{{0.1, 0.2}, {0.3, 0.4}},
		Valid:  [][]bool{{true, true}, {true, true}},
	}

	s := Summarize(g)
	require.Equal(t, 4, s.ValidCells)
	assert.InDelta(t, 0.25, s.Mean, 1e-6)
	assert.InDelta(t, 0.25, s.Median, 1e-6) // average of the two middle values
	assert.InDelta(t, 0.1, s.Min, 1e-6)
	assert.InDelta(t, 0.4, s.Max, 1e-6)
	assert.InDelta(t, 0.111803, s.StdDev, 1e-6) // sqrt(0.0125)
}

func TestSummarizePartialValidity(t *testing.T) {
	g := uniformGrid(2, 2, 0.5)
	g.Valid[0][0] = false

	s := Summarize(g)
	assert.Equal(t, 3, s.ValidCells)
	assert.Equal(t, 4, s.TotalCells)
	assert.InDelta(t, 75.0, s.ValidRatio, 1e-9)
}
