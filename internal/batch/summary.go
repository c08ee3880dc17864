package batch

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"
)

// SummaryFileName is the per-point time-series pivot; DateFileName is
// the long-form cross-section sorted by date then point.
const (
	SummaryFileName = "ndvi_summary.csv"
	DateFileName    = "ndvi_by_date.csv"
)

type dateRow struct {
	No   string  `csv:"No"`
	Lat  float64 `csv:"Lat"`
	Lon  float64 `csv:"Lon"`
	Date string  `csv:"Date"`
	NDVI float64 `csv:"NDVI"`
}

// writeSummaries pivots the successful task results two ways: one row
// per point with a mean-NDVI column per date, and one long-form row per
// (date, point). Failed tasks contribute no value; the per-point pivot
// records NaN for a (point, date) hole.
func writeSummaries(report *Report, outputDir string) error {
	var ok []TaskResult
	for _, r := range report.Results {
		if r.Err == nil {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return fmt.Errorf("no successful tasks; summaries not written")
	}

	dates := uniqueDates(ok)
	points := uniquePoints(ok)

	byKey := make(map[[2]string]float64, len(ok))
	for _, r := range ok {
		byKey[[2]string{r.Point.No, r.Date}] = r.Stats.Mean
	}

	if err := writePointPivot(filepath.Join(outputDir, SummaryFileName), points, dates, byKey); err != nil {
		return err
	}
	return writeDateRows(filepath.Join(outputDir, DateFileName), points, dates, byKey)
}

// The date columns vary per run, so this pivot goes through a raw
// csv.Writer instead of gocsv.
func writePointPivot(path string, points []TaskResult, dates []string, byKey map[[2]string]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append([]string{"No", "Lat", "Lon"}, dates...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}

	for _, p := range points {
		row := []string{
			p.Point.No,
			strconv.FormatFloat(p.Point.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Point.Lon, 'f', -1, 64),
		}
		for _, d := range dates {
			mean, has := byKey[[2]string{p.Point.No, d}]
			if !has {
				mean = math.NaN()
			}
			row = append(row, strconv.FormatFloat(mean, 'f', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write summary %s: %w", path, err)
		}
	}
	return nil
}

func writeDateRows(path string, points []TaskResult, dates []string, byKey map[[2]string]float64) error {
	var rows []dateRow
	for _, d := range dates {
		for _, p := range points {
			mean, has := byKey[[2]string{p.Point.No, d}]
			if !has {
				continue
			}
			rows = append(rows, dateRow{
				No:   p.Point.No,
				Lat:  p.Point.Lat,
				Lon:  p.Point.Lon,
				Date: d,
				NDVI: mean,
			})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}

func uniqueDates(results []TaskResult) []string {
	seen := map[string]bool{}
	var dates []string
	for _, r := range results {
		if !seen[r.Date] {
			seen[r.Date] = true
			dates = append(dates, r.Date)
		}
	}
	sort.Strings(dates)
	return dates
}

// uniquePoints keeps one result per point, already in report order.
func uniquePoints(results []TaskResult) []TaskResult {
	seen := map[string]bool{}
	var points []TaskResult
	for _, r := range results {
		if !seen[r.Point.No] {
			seen[r.Point.No] = true
			points = append(points, r)
		}
	}
	return points
}
