package properties

import "os"

// DefaultSourceURL is the NCEI directory listing for the 1990 AVHRR
// surface-reflectance granules.
const DefaultSourceURL = "https://www.ncei.noaa.gov/data/land-surface-reflectance/access/1990/"

func SourceURL() string {
	if v := os.Getenv("NDVI_SOURCE_URL"); v != "" {
		return v
	}
	return DefaultSourceURL
}

func DataDir() string {
	if v := os.Getenv("NDVI_DATA_DIR"); v != "" {
		return v
	}
	return "./nc_files"
}

func LogLevel() string {
	if v := os.Getenv("NDVI_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}
