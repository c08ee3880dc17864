package ndvi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/geo"
)

func uniformGrid(rows, cols int, value float64) Grid {
	g := Grid{
		Values: make([][]float64, rows),
		Valid:  make([][]bool, rows),
	}
	for r := range g.Values {
		g.Values[r] = make([]float64, cols)
		g.Valid[r] = make([]bool, cols)
		for c := range g.Values[r] {
			g.Values[r][c] = value
			g.Valid[r][c] = true
		}
	}
	return g
}

func TestComputeFormula(t *testing.T) {
	vis := uniformGrid(2, 2, 0.1)
	nir := uniformGrid(2, 2, 0.3)

	out := Compute(vis, nir)
	require.Equal(t, 2, out.Rows())
	require.Equal(t, 2, out.Cols())
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			assert.True(t, out.Valid[r][c])
			assert.InDelta(t, 0.5, out.Values[r][c], 1e-9) // (0.3-0.1)/(0.3+0.1)
		}
	}
}

func TestComputeMasksBadCells(t *testing.T) {
	vis := uniformGrid(1, 4, 0.1)
	nir := uniformGrid(1, 4, 0.3)

	vis.Valid[0][0] = false          // fill value upstream
	nir.Values[0][1] = -0.1          // zero denominator
	vis.Values[0][2] = math.NaN()    // non-finite input
	nir.Values[0][3] = math.Inf(1)   // non-finite input

	out := Compute(vis, nir)
	for c := 0; c < 4; c++ {
		assert.False(t, out.Valid[0][c], "cell %d should be masked", c)
	}
}

func TestComputeValidCellsStayInRange(t *testing.T) {
	vis := uniformGrid(1, 3, 0)
	nir := uniformGrid(1, 3, 0)
	// Negative reflectances can push the raw ratio outside [-1, 1].
	vis.Values[0][0], nir.Values[0][0] = -0.1, 0.3
	vis.Values[0][1], nir.Values[0][1] = 0.3, -0.1
	vis.Values[0][2], nir.Values[0][2] = 0.2, 0.2

	out := Compute(vis, nir)
	for c := 0; c < 3; c++ {
		require.True(t, out.Valid[0][c])
		assert.GreaterOrEqual(t, out.Values[0][c], -1.0)
		assert.LessOrEqual(t, out.Values[0][c], 1.0)
		assert.False(t, math.IsNaN(out.Values[0][c]))
		assert.False(t, math.IsInf(out.Values[0][c], 0))
	}
}

func TestSubCopiesWindow(t *testing.T) {
	g := uniformGrid(5, 5, 0.5)
	g.Values[2][2] = 0.9

	w := geo.Window{RowMin: 1, RowMax: 3, ColMin: 2, ColMax: 4}
	sub := g.Sub(w)
	require.Equal(t, 3, sub.Rows())
	require.Equal(t, 3, sub.Cols())
	assert.InDelta(t, 0.9, sub.Values[1][0], 1e-9)

	// The window copy is detached from the source grid.
	sub.Values[0][0] = -1
	assert.InDelta(t, 0.5, g.Values[1][2], 1e-9)
}

func TestSubEmptyWindow(t *testing.T) {
	g := uniformGrid(3, 3, 0.5)
	sub := g.Sub(geo.Window{RowMin: 0, RowMax: -1, ColMin: 0, ColMax: -1})
	assert.Equal(t, 0, sub.Rows())
	assert.Equal(t, 0, sub.Cols())
}
