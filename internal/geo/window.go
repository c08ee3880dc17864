// Package geo resolves point-plus-radius requests into grid index
// windows against a granule's coordinate axes.
package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// kmPerDegree is the flat-Earth approximation for one degree of
// latitude; longitude is corrected by cos(latitude).
const kmPerDegree = 111.0

// Window is a rectangular, inclusive index range into a granule grid,
// centered on the grid cell nearest to the requested point.
type Window struct {
	RowMin, RowMax int
	ColMin, ColMax int

	CenterRow, CenterCol int
	CenterLat, CenterLon float64
}

func emptyWindow() Window {
	return Window{RowMax: -1, ColMax: -1}
}

func (w Window) Empty() bool {
	return w.RowMax < w.RowMin || w.ColMax < w.ColMin
}

func (w Window) Rows() int {
	if w.Empty() {
		return 0
	}
	return w.RowMax - w.RowMin + 1
}

func (w Window) Cols() int {
	if w.Empty() {
		return 0
	}
	return w.ColMax - w.ColMin + 1
}

// Resolve finds the cell nearest to (lat, lon) in degree space and
// expands it into an index window spanning sizeKm kilometers, clipped
// to the grid extent. A size of zero or less degenerates to the single
// nearest cell. Points outside the grid's coverage still resolve to the
// nearest cell; rejecting them is the caller's business.
func Resolve(lats, lons []float64, lat, lon, sizeKm float64) Window {
	if len(lats) == 0 || len(lons) == 0 {
		return emptyWindow()
	}

	row := nearestIndex(lats, lat)
	col := nearestIndex(lons, lon)

	w := Window{
		CenterRow: row, CenterCol: col,
		CenterLat: lats[row], CenterLon: lons[col],
	}

	rowSpan, colSpan := 0, 0
	if sizeKm > 0 {
		halfLatDeg := sizeKm / 2 / kmPerDegree
		rowSpan = cellSpan(lats, halfLatDeg)

		cosLat := math.Cos(lat * math.Pi / 180)
		if math.Abs(cosLat) < 1e-9 {
			// Meridians converge at the pole; the window spans every column.
			colSpan = len(lons)
		} else {
			halfLonDeg := sizeKm / 2 / (kmPerDegree * math.Abs(cosLat))
			colSpan = cellSpan(lons, halfLonDeg)
		}
	}

	w.RowMin = clip(row-rowSpan, 0, len(lats)-1)
	w.RowMax = clip(row+rowSpan, 0, len(lats)-1)
	w.ColMin = clip(col-colSpan, 0, len(lons)-1)
	w.ColMax = clip(col+colSpan, 0, len(lons)-1)
	return w
}

// GroundDistanceKm is the haversine distance between two coordinates.
func GroundDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.Distance(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / 1000
}

// nearestIndex finds the axis cell closest to target. Monotonic axes
// (the usual case) are binary-searched; anything else falls back to a
// linear scan.
func nearestIndex(axis []float64, target float64) int {
	if len(axis) == 1 {
		return 0
	}

	ascending := sort.Float64sAreSorted(axis)
	descending := !ascending && sort.SliceIsSorted(axis, func(i, j int) bool {
		return axis[i] > axis[j]
	})
	if !ascending && !descending {
		best := 0
		for i, v := range axis {
			if math.Abs(v-target) < math.Abs(axis[best]-target) {
				best = i
			}
		}
		return best
	}

	i := sort.Search(len(axis), func(i int) bool {
		if ascending {
			return axis[i] >= target
		}
		return axis[i] <= target
	})
	if i == len(axis) {
		return len(axis) - 1
	}
	if i > 0 && math.Abs(axis[i-1]-target) <= math.Abs(axis[i]-target) {
		return i - 1
	}
	return i
}

// cellSpan converts a degree half-width into a cell count using the
// axis's mean spacing.
func cellSpan(axis []float64, halfDeg float64) int {
	if len(axis) < 2 {
		return 0
	}
	spacing := math.Abs(axis[len(axis)-1]-axis[0]) / float64(len(axis)-1)
	if spacing == 0 {
		return 0
	}
	return int(math.Ceil(halfDeg / spacing))
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
