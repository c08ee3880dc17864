package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/download"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/logger"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/properties"
)

func newDownloadCmd() *cobra.Command {
	var cfg download.Config

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download NetCDF granules from an NCEI directory listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Log = logger.New(properties.LogLevel())
			report, err := download.Fetch(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Printf("Download complete: %d/%d files (%d skipped, %d failed)\n",
				report.Downloaded, report.Total, report.Skipped, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.URL, "url", "u", properties.SourceURL(), "source directory listing URL")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", properties.DataDir(), "directory for downloaded files")
	cmd.Flags().IntVarP(&cfg.Limit, "limit", "l", 0, "maximum number of files to download (0 = no limit)")
	cmd.Flags().BoolVarP(&cfg.Overwrite, "overwrite", "w", false, "overwrite files that already exist")
	cmd.Flags().IntVarP(&cfg.Workers, "workers", "p", 3, "number of parallel downloads")
	return cmd
}
