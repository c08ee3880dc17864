// Package ndvi derives the normalized difference vegetation index from
// surface-reflectance bands and reduces region windows to summary
// statistics.
package ndvi

import (
	"math"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/geo"
)

// Grid is a rectangular 2-D array with a per-cell validity mask.
type Grid struct {
	Values [][]float64
	Valid  [][]bool
}

func NewGrid(values [][]float64, valid [][]bool) Grid {
	return Grid{Values: values, Valid: valid}
}

func (g Grid) Rows() int {
	return len(g.Values)
}

func (g Grid) Cols() int {
	if len(g.Values) == 0 {
		return 0
	}
	return len(g.Values[0])
}

// Sub copies the cells covered by w into a new grid. The window is
// expected to be clipped to the grid extent already; out-of-range rows
// are clipped again here so a stale window cannot index past the data.
func (g Grid) Sub(w geo.Window) Grid {
	if w.Empty() || g.Rows() == 0 {
		return Grid{}
	}

	rowMax := minInt(w.RowMax, g.Rows()-1)
	colMax := minInt(w.ColMax, g.Cols()-1)
	if w.RowMin > rowMax || w.ColMin > colMax {
		return Grid{}
	}

	sub := Grid{
		Values: make([][]float64, 0, rowMax-w.RowMin+1),
		Valid:  make([][]bool, 0, rowMax-w.RowMin+1),
	}
	for r := w.RowMin; r <= rowMax; r++ {
		values := make([]float64, colMax-w.ColMin+1)
		valid := make([]bool, colMax-w.ColMin+1)
		copy(values, g.Values[r][w.ColMin:colMax+1])
		copy(valid, g.Valid[r][w.ColMin:colMax+1])
		sub.Values = append(sub.Values, values)
		sub.Valid = append(sub.Valid, valid)
	}
	return sub
}

// Compute evaluates (NIR-VIS)/(NIR+VIS) per cell. A cell is masked
// invalid when either input is invalid or non-finite, or when the
// denominator is exactly zero. Valid results are clamped to [-1, 1].
func Compute(vis, nir Grid) Grid {
	rows := minInt(vis.Rows(), nir.Rows())
	cols := minInt(vis.Cols(), nir.Cols())

	out := Grid{
		Values: make([][]float64, rows),
		Valid:  make([][]bool, rows),
	}
	for r := 0; r < rows; r++ {
		out.Values[r] = make([]float64, cols)
		out.Valid[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			if !vis.Valid[r][c] || !nir.Valid[r][c] {
				continue
			}
			v, n := vis.Values[r][c], nir.Values[r][c]
			if !finite(v) || !finite(n) {
				continue
			}
			denom := n + v
			if denom == 0 {
				continue
			}
			out.Values[r][c] = clamp((n-v)/denom, -1, 1)
			out.Valid[r][c] = true
		}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
