package avhrr

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrs(t *testing.T, m map[string]interface{}) api.AttributeMap {
	t.Helper()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	om, err := util.NewOrderedMap(keys, m)
	require.NoError(t, err)
	return om
}

// writeGranule builds a minimal AVH09C1-shaped file: 1-D coordinate
// axes plus two reflectance channels.
func writeGranule(t *testing.T, path string, lats, lons []float64, ch1, ch2 [][]float64, ch1Attrs api.AttributeMap) {
	t.Helper()

	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)

	require.NoError(t, cw.AddVar(LatVar, api.Variable{
		Values:     lats,
		Dimensions: []string{"latitude"},
	}))
	require.NoError(t, cw.AddVar(LonVar, api.Variable{
		Values:     lons,
		Dimensions: []string{"longitude"},
	}))
	require.NoError(t, cw.AddVar(VisibleBand, api.Variable{
		Values:     ch1,
		Dimensions: []string{"latitude", "longitude"},
		Attributes: ch1Attrs,
	}))
	require.NoError(t, cw.AddVar(NearInfraredBand, api.Variable{
		Values:     ch2,
		Dimensions: []string{"latitude", "longitude"},
	}))
	require.NoError(t, cw.Close())
}

func TestOpenReadsAxesAndBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_19900101_c1.nc")
	lats := []float64{35.0, 35.05, 35.1}
	lons := []float64{139.0, 139.05}
	ch1 := [][]float64{{0.1, 0.1}, {0.2, 0.2}, {0.3, 0.3}}
	ch2 := [][]float64{{0.3, 0.3}, {0.4, 0.4}, {0.5, 0.5}}
	writeGranule(t, path, lats, lons, ch1, ch2, nil)

	g, err := Open(path)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, lats, g.Lats)
	assert.Equal(t, lons, g.Lons)

	values, valid, err := g.Band(VisibleBand)
	require.NoError(t, err)
	require.Len(t, values, 3)
	require.Len(t, values[0], 2)
	assert.InDelta(t, 0.2, values[1][0], 1e-9)
	assert.True(t, valid[1][0])
}

func TestBandAppliesFillAndScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_19900101_c1.nc")
	fill := -9999.0
	ch1 := [][]float64{{1000, fill}, {2000, 3000}}
	ch2 := [][]float64{{1, 1}, {1, 1}}
	a := attrs(t, map[string]interface{}{
		"_FillValue":   fill,
		"scale_factor": 0.0001,
		"add_offset":   0.0,
	})
	writeGranule(t, path, []float64{35.0, 35.05}, []float64{139.0, 139.05}, ch1, ch2, a)

	g, err := Open(path)
	require.NoError(t, err)
	defer g.Close()

	values, valid, err := g.Band(VisibleBand)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, values[0][0], 1e-9)
	assert.InDelta(t, 0.3, values[1][1], 1e-9)
	assert.True(t, valid[0][0])
	assert.False(t, valid[0][1], "fill cell must be masked")
}

func TestOpenMissingVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare_19900101.nc")
	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)
	require.NoError(t, cw.AddVar("unrelated", api.Variable{
		Values:     []float64{1, 2},
		Dimensions: []string{"x"},
	}))
	require.NoError(t, cw.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVariableMissing)
}

func TestBandMissingVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_19900101.nc")
	writeGranule(t, path,
		[]float64{35.0, 35.05}, []float64{139.0, 139.05},
		[][]float64{{0.1, 0.1}, {0.1, 0.1}},
		[][]float64{{0.3, 0.3}, {0.3, 0.3}}, nil)

	g, err := Open(path)
	require.NoError(t, err)
	defer g.Close()

	_, _, err = g.Band("BT_CH3")
	assert.ErrorIs(t, err, ErrVariableMissing)
}

func TestDateFromFilename(t *testing.T) {
	cases := []struct {
		name string
		file string
		want string
		ok   bool
	}{
		{"avhrr name", "AVHRR-Land_v005_AVH09C1_NOAA-11_19900101_c20170614215223.nc", "19900101", true},
		{"date only token", "x_19901231_y.nc", "19901231", true},
		{"skips non-date 8 digits", "f_99999999_19900315.nc", "19900315", true},
		{"no date", "some_file.nc", "", false},
		{"eight letters", "abcdefgh_granule.nc", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, raw, err := DateFromFilename(tc.file)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, raw)
			want, err := time.Parse("20060102", tc.want)
			require.NoError(t, err)
			assert.True(t, parsed.Equal(want))
		})
	}
}

func TestNumericConversionKinds(t *testing.T) {
	grid, err := toGrid([][]int16{{10, 20}, {30, 40}})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, grid[1][0], 1e-9)

	// 3-D variables collapse to the first time slice.
	grid, err = toGrid([][][]float32{{{1, 2}, {3, 4}}, {{9, 9}, {9, 9}}})
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.InDelta(t, 4.0, grid[1][1], 1e-6)

	_, err = toGrid("not a slice")
	assert.Error(t, err)
}
