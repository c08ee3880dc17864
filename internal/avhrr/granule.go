// Package avhrr reads NOAA AVHRR surface-reflectance NetCDF granules.
package avhrr

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Variable names used by the AVH09C1 product.
const (
	LatVar           = "latitude"
	LonVar           = "longitude"
	VisibleBand      = "SREFL_CH1"
	NearInfraredBand = "SREFL_CH2"
)

var ErrVariableMissing = errors.New("variable not found in granule")

// Granule is one open NetCDF file. It is read-only and owned by a
// single processing task; Close releases the underlying reader.
type Granule struct {
	Path string
	Lats []float64
	Lons []float64

	nc api.Group
}

func Open(path string) (*Granule, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open granule %s: %w", path, err)
	}

	g := &Granule{Path: path, nc: nc}
	if g.Lats, err = g.axis(LatVar, true); err != nil {
		nc.Close()
		return nil, err
	}
	if g.Lons, err = g.axis(LonVar, false); err != nil {
		nc.Close()
		return nil, err
	}
	return g, nil
}

func (g *Granule) Close() {
	g.nc.Close()
}

// axis returns a 1-D coordinate vector. The AVH09C1 grid is regular, so
// a 2-D coordinate variable is collapsed to its axis: the first column
// for latitude (byRow) and the first row for longitude.
func (g *Granule) axis(name string, byRow bool) ([]float64, error) {
	vr, err := g.nc.GetVariable(name)
	if err != nil || vr == nil {
		return nil, fmt.Errorf("%w: %s", ErrVariableMissing, name)
	}

	rv := reflect.ValueOf(vr.Values)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("unexpected type %T for %s", vr.Values, name)
	}
	if rv.Len() > 0 && rv.Index(0).Kind() == reflect.Slice {
		grid, err := toGrid(vr.Values)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		axis := make([]float64, 0)
		if byRow {
			for _, row := range grid {
				if len(row) == 0 {
					return nil, fmt.Errorf("empty coordinate row in %s", name)
				}
				axis = append(axis, row[0])
			}
		} else if len(grid) > 0 {
			axis = append(axis, grid[0]...)
		}
		return axis, nil
	}

	axis := make([]float64, rv.Len())
	for i := range axis {
		v, err := numeric(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		axis[i] = v
	}
	return axis, nil
}

// Band reads a 2-D reflectance channel plus its validity mask. A 3-D
// variable (time, lat, lon) is reduced to its first time slice. Cells
// equal to the variable's _FillValue are masked before scale_factor and
// add_offset are applied.
func (g *Granule) Band(name string) ([][]float64, [][]bool, error) {
	vr, err := g.nc.GetVariable(name)
	if err != nil || vr == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrVariableMissing, name)
	}

	raw, err := toGrid(vr.Values)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}

	fill, hasFill := attrFloat(vr.Attributes, "_FillValue")
	scale, hasScale := attrFloat(vr.Attributes, "scale_factor")
	offset, hasOffset := attrFloat(vr.Attributes, "add_offset")
	if !hasScale {
		scale = 1
	}
	if !hasOffset {
		offset = 0
	}

	values := make([][]float64, len(raw))
	valid := make([][]bool, len(raw))
	for i, row := range raw {
		values[i] = make([]float64, len(row))
		valid[i] = make([]bool, len(row))
		for j, v := range row {
			if (hasFill && v == fill) || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values[i][j] = v*scale + offset
			valid[i][j] = true
		}
	}
	return values, valid, nil
}

// toGrid converts a 2-D or 3-D numeric slice into [][]float64, taking
// the first slice of a 3-D variable.
func toGrid(v interface{}) ([][]float64, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("unexpected type %T", v)
	}
	if rv.Len() > 0 && rv.Index(0).Kind() == reflect.Slice &&
		rv.Index(0).Len() > 0 && rv.Index(0).Index(0).Kind() == reflect.Slice {
		rv = rv.Index(0)
	}

	grid := make([][]float64, rv.Len())
	for i := range grid {
		row := rv.Index(i)
		if row.Kind() != reflect.Slice {
			return nil, fmt.Errorf("variable is not two-dimensional")
		}
		grid[i] = make([]float64, row.Len())
		for j := range grid[i] {
			val, err := numeric(row.Index(j))
			if err != nil {
				return nil, err
			}
			grid[i][j] = val
		}
	}
	return grid, nil
}

func numeric(v reflect.Value) (float64, error) {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	}
	return 0, fmt.Errorf("non-numeric cell of kind %s", v.Kind())
}

// attrFloat reads a numeric attribute. NetCDF scalar attributes can come
// back as single-element slices.
func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, has := attrs.Get(key)
	if !has || raw == nil {
		return 0, false
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice {
		if rv.Len() != 1 {
			return 0, false
		}
		rv = rv.Index(0)
	}
	v, err := numeric(rv)
	if err != nil {
		return 0, false
	}
	return v, true
}
