package batch

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/processor"
)

var ErrMissingColumns = errors.New("point list missing required columns")

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// pointRow keeps the coordinate columns as strings so one malformed row
// can be skipped instead of failing the whole unmarshal.
type pointRow struct {
	No          string `csv:"No"`
	Lat         string `csv:"Lat"`
	Lon         string `csv:"Lon"`
	Description string `csv:"Description"`
}

// ReadPoints loads the point-of-interest list. The required columns
// (No, Lat, Lon) are validated up front so a malformed list aborts the
// run before any task is dispatched; individual rows with unparsable
// coordinates are logged and skipped.
func ReadPoints(path string, log *logrus.Logger) ([]processor.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read point list %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to parse point list %s: %w", path, err)
	}
	for _, required := range []string{"No", "Lat", "Lon"} {
		if !containsColumn(header, required) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingColumns, required, path)
		}
	}

	var rows []pointRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse point list %s: %w", path, err)
	}

	points := make([]processor.Point, 0, len(rows))
	for _, row := range rows {
		lat, latErr := strconv.ParseFloat(row.Lat, 64)
		lon, lonErr := strconv.ParseFloat(row.Lon, 64)
		if latErr != nil || lonErr != nil {
			log.WithField("point", row.No).Warnf("skipping row with bad coordinates: Lat=%q Lon=%q", row.Lat, row.Lon)
			continue
		}
		points = append(points, processor.Point{
			No:          row.No,
			Lat:         lat,
			Lon:         lon,
			Description: row.Description,
		})
	}
	return points, nil
}

func containsColumn(header []string, name string) bool {
	for _, h := range header {
		if h == name {
			return true
		}
	}
	return false
}
