// Package batch fans single-file NDVI extraction out across the cross
// product of points and granules and aggregates the results.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/avhrr"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/ndvi"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/processor"
)

type Config struct {
	PointsPath   string
	GranuleDir   string
	OutputDir    string // empty: <GranuleDir>/ndvi_results; relative: resolved against GranuleDir
	RegionSizeKm float64
	Workers      int
	Summary      bool
	TestMode     bool // first point and first granule only
	Log          *logrus.Logger
}

// TaskResult is the outcome of one (point, granule) task. Failed tasks
// carry Err and contribute no row to the summaries.
type TaskResult struct {
	Point processor.Point
	File  string
	Date  string
	Stats ndvi.Stats
	Err   error
}

type Report struct {
	Succeeded int
	Failed    int
	Results   []TaskResult
	OutputDir string
}

// Run dispatches every (point, granule) pair to a fixed worker pool.
// Tasks are independent and write to disjoint per-point directories;
// results come back over a buffered channel and only Run touches the
// result table. A failing task is logged and counted, never fatal; the
// returned error is reserved for unusable top-level input and for the
// case where every single task failed.
func Run(cfg Config) (*Report, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	points, err := ReadPoints(cfg.PointsPath, log)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no usable points in %s", cfg.PointsPath)
	}

	files, err := FindGranules(cfg.GranuleDir, log)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .nc granules found in %s", cfg.GranuleDir)
	}

	if cfg.TestMode {
		points = points[:1]
		files = files[:1]
		log.Infof("test mode: using point %s and granule %s only", points[0].No, filepath.Base(files[0]))
	}

	outputDir, err := resolveOutputDir(cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("processing %d points x %d granules into %s", len(points), len(files), outputDir)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	total := len(points) * len(files)
	results := make(chan TaskResult, total)
	bar := progressbar.Default(int64(total), "Processing NDVI tasks")

	wp := workerpool.New(workers)
	for _, pt := range points {
		for _, file := range files {
			pt, file := pt, file
			wp.Submit(func() {
				results <- runTask(cfg, log, outputDir, pt, file)
				bar.Add(1)
			})
		}
	}
	wp.StopWait()
	close(results)
	bar.Finish()

	report := &Report{OutputDir: outputDir}
	for res := range results {
		report.Results = append(report.Results, res)
		entry := log.WithFields(logrus.Fields{"point": res.Point.No, "file": filepath.Base(res.File)})
		if res.Err != nil {
			report.Failed++
			entry.Errorf("task failed: %v", res.Err)
			continue
		}
		report.Succeeded++
		entry.Info("task succeeded")
	}
	sortResults(report.Results)

	log.Infof("batch complete: %d succeeded, %d failed", report.Succeeded, report.Failed)

	if cfg.Summary {
		if err := writeSummaries(report, outputDir); err != nil {
			return report, err
		}
	}

	if report.Failed == total {
		return report, fmt.Errorf("all %d tasks failed", total)
	}
	return report, nil
}

func runTask(cfg Config, log *logrus.Logger, outputDir string, pt processor.Point, file string) TaskResult {
	res := TaskResult{Point: pt, File: file}
	if _, date, err := avhrr.DateFromFilename(file); err == nil {
		res.Date = date
	} else {
		res.Date = "unknown"
	}

	pointDir := filepath.Join(outputDir, "point_"+pt.No)
	if err := os.MkdirAll(pointDir, 0o755); err != nil {
		res.Err = fmt.Errorf("failed to create point directory: %w", err)
		return res
	}

	pcfg := processor.Config{
		RegionSizeKm: cfg.RegionSizeKm,
		ImagePath:    filepath.Join(pointDir, processor.ImageFileName(res.Date, pt, cfg.RegionSizeKm)),
		StatsPath:    filepath.Join(pointDir, processor.StatsFileName(res.Date)),
		Quiet:        true,
		Log:          log,
	}

	out, err := processor.Process(pcfg, file, pt)
	if err != nil {
		res.Err = err
		return res
	}
	res.Date = out.Date
	res.Stats = out.Stats
	return res
}

// FindGranules lists the .nc files of a directory sorted by their
// acquisition date. Files with no recognizable date are reported and
// kept at the end, sorted by name.
func FindGranules(dir string, log *logrus.Logger) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("granule directory unusable: %w", err)
	}

	var files []string
	for _, pattern := range []string{"*.nc", "*.NC"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		files = append(files, matches...)
	}

	type dated struct {
		path string
		date time.Time
	}
	var withDate []dated
	var dateless []string
	for _, f := range files {
		if t, _, err := avhrr.DateFromFilename(f); err == nil {
			withDate = append(withDate, dated{f, t})
		} else {
			log.Warnf("no acquisition date in filename %s", filepath.Base(f))
			dateless = append(dateless, f)
		}
	}
	sort.Slice(withDate, func(i, j int) bool { return withDate[i].date.Before(withDate[j].date) })
	sort.Strings(dateless)

	sorted := make([]string, 0, len(files))
	for _, d := range withDate {
		sorted = append(sorted, d.path)
	}
	return append(sorted, dateless...), nil
}

func resolveOutputDir(cfg Config) (string, error) {
	ncDir, err := filepath.Abs(cfg.GranuleDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve granule directory: %w", err)
	}

	out := cfg.OutputDir
	switch {
	case out == "":
		out = filepath.Join(ncDir, "ndvi_results")
	case !filepath.IsAbs(out):
		out = filepath.Join(ncDir, out)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", out, err)
	}
	return out, nil
}

// sortResults orders by point id (numeric when possible) then date so
// the report and summaries are reproducible regardless of completion
// order.
func sortResults(results []TaskResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Point.No != results[j].Point.No {
			return lessPointNo(results[i].Point.No, results[j].Point.No)
		}
		return results[i].Date < results[j].Date
	})
}

func lessPointNo(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}
