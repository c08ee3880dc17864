package avhrr

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const dateLayout = "20060102"

// DateFromFilename extracts the 8-digit acquisition date embedded in an
// AVHRR granule filename, e.g.
// AVHRR-Land_v005_AVH09C1_NOAA-11_19900101_c20170614215223.nc.
// It returns the raw YYYYMMDD token along with the parsed date.
func DateFromFilename(name string) (time.Time, string, error) {
	base := filepath.Base(name)
	for _, part := range strings.Split(base, "_") {
		part = strings.TrimSpace(part)
		if len(part) != 8 || !allDigits(part) {
			continue
		}
		if t, err := time.Parse(dateLayout, part); err == nil {
			return t, part, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("no acquisition date in filename %s", base)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
