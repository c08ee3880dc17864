// Package processor binds granule access, window resolution, NDVI and
// statistics into one unit of work for a (granule, point) pair.
package processor

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/avhrr"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/geo"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/ndvi"
	"github.com/vegwatch/avhrr-ndvi-cli/output"
)

var (
	ErrBadCoordinates = errors.New("point coordinates out of range")
	ErrEmptyWindow    = errors.New("resolved window is outside the granule grid")
	// ErrBandMissing reports a granule that lacks a required variable.
	ErrBandMissing = avhrr.ErrVariableMissing
)

// Point is one row of the point-of-interest list.
type Point struct {
	No          string  `csv:"No"`
	Lat         float64 `csv:"Lat"`
	Lon         float64 `csv:"Lon"`
	Description string  `csv:"Description"`
}

type Config struct {
	RegionSizeKm float64
	ImagePath    string // empty disables the plot
	StatsPath    string // empty disables the stats CSV
	Quiet        bool
	Log          *logrus.Logger
}

// Result is the statistics record for one processed (granule, point)
// pair. Identical inputs always produce identical records.
type Result struct {
	Point      Point
	SourceFile string
	Date       string // YYYYMMDD, or "unknown"
	Window     geo.Window
	Stats      ndvi.Stats
	ImagePath  string
	StatsPath  string
}

// Process opens the granule read-only, resolves the region window
// around the point, computes NDVI over the window and summarizes it.
// Output files are written only when configured; input files are never
// mutated.
func Process(cfg Config, ncPath string, pt Point) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	if pt.Lat < -90 || pt.Lat > 90 || pt.Lon < -180 || pt.Lon > 180 {
		return nil, fmt.Errorf("%w: lat=%v lon=%v", ErrBadCoordinates, pt.Lat, pt.Lon)
	}

	g, err := avhrr.Open(ncPath)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	visValues, visValid, err := g.Band(avhrr.VisibleBand)
	if err != nil {
		return nil, err
	}
	nirValues, nirValid, err := g.Band(avhrr.NearInfraredBand)
	if err != nil {
		return nil, err
	}

	w := geo.Resolve(g.Lats, g.Lons, pt.Lat, pt.Lon, cfg.RegionSizeKm)
	if w.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyWindow, filepath.Base(ncPath))
	}

	// The resolver never rejects a far-away point; surface it here so a
	// window full of irrelevant cells is at least visible in the logs.
	if d := geo.GroundDistanceKm(pt.Lat, pt.Lon, w.CenterLat, w.CenterLon); d > math.Max(cfg.RegionSizeKm, 1) {
		log.WithFields(logrus.Fields{"point": pt.No, "distance_km": fmt.Sprintf("%.1f", d)}).
			Warn("point lies outside granule coverage; using nearest cell")
	}

	vis := ndvi.NewGrid(visValues, visValid).Sub(w)
	nir := ndvi.NewGrid(nirValues, nirValid).Sub(w)
	region := ndvi.Compute(vis, nir)
	st := ndvi.Summarize(region)

	_, date, err := avhrr.DateFromFilename(ncPath)
	if err != nil {
		date = "unknown"
	}

	res := &Result{
		Point:      pt,
		SourceFile: filepath.Base(ncPath),
		Date:       date,
		Window:     w,
		Stats:      st,
	}

	if cfg.ImagePath != "" {
		centerRow := w.CenterRow - w.RowMin
		centerCol := w.CenterCol - w.ColMin
		if err := output.CreateNDVIImage(cfg.ImagePath, region, centerRow, centerCol); err != nil {
			return nil, err
		}
		res.ImagePath = cfg.ImagePath
	}

	if cfg.StatsPath != "" {
		if err := writeStatsCSV(cfg.StatsPath, res, cfg.RegionSizeKm); err != nil {
			return nil, err
		}
		res.StatsPath = cfg.StatsPath
	}

	if !cfg.Quiet {
		reportStats(log, res)
	}
	return res, nil
}

// ImageFileName builds the deterministic plot filename for a batch
// task: <date>_region_lat<lat>_lon<lon>_<size>km_ndvi.png.
func ImageFileName(date string, pt Point, sizeKm float64) string {
	return fmt.Sprintf("%s_region_lat%.4f_lon%.4f_%gkm_ndvi.png", date, pt.Lat, pt.Lon, sizeKm)
}

// StatsFileName builds the per-task statistics CSV filename.
func StatsFileName(date string) string {
	return fmt.Sprintf("%s_ndvi_stats.csv", date)
}

// DefaultImageName derives the standalone visualizer output name from
// the granule filename.
func DefaultImageName(ncPath string, lat, lon, sizeKm float64) string {
	base := strings.TrimSuffix(filepath.Base(ncPath), filepath.Ext(ncPath))
	return fmt.Sprintf("%s_region_%g_%g_%gkm_ndvi.png", base, lat, lon, sizeKm)
}

type statRow struct {
	Statistic string `csv:"statistic"`
	Value     string `csv:"value"`
}

func writeStatsCSV(path string, res *Result, sizeKm float64) error {
	rows := []statRow{
		{"Point No", res.Point.No},
		{"Center Latitude", fmt.Sprintf("%.4f", res.Point.Lat)},
		{"Center Longitude", fmt.Sprintf("%.4f", res.Point.Lon)},
		{"Region Size (km)", fmt.Sprintf("%g", sizeKm)},
		{"Date", res.Date},
		{"Mean NDVI", formatStat(res.Stats.Mean)},
		{"Median NDVI", formatStat(res.Stats.Median)},
		{"Min NDVI", formatStat(res.Stats.Min)},
		{"Max NDVI", formatStat(res.Stats.Max)},
		{"StdDev NDVI", formatStat(res.Stats.StdDev)},
		{"Valid Cells", fmt.Sprintf("%d", res.Stats.ValidCells)},
		{"Total Cells", fmt.Sprintf("%d", res.Stats.TotalCells)},
		{"Valid Ratio (%)", fmt.Sprintf("%.2f", res.Stats.ValidRatio)},
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create stats CSV %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write stats CSV %s: %w", path, err)
	}
	return nil
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.6f", v)
}

func reportStats(log *logrus.Logger, res *Result) {
	log.WithFields(logrus.Fields{
		"point": res.Point.No,
		"file":  res.SourceFile,
		"date":  res.Date,
	}).Infof("NDVI mean=%s median=%s min=%s max=%s stddev=%s valid=%d/%d (%.1f%%)",
		formatStat(res.Stats.Mean), formatStat(res.Stats.Median),
		formatStat(res.Stats.Min), formatStat(res.Stats.Max),
		formatStat(res.Stats.StdDev),
		res.Stats.ValidCells, res.Stats.TotalCells, res.Stats.ValidRatio)
}
