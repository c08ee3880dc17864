package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/batch"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/logger"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/properties"
)

func newBatchCmd() *cobra.Command {
	var cfg batch.Config

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract NDVI statistics for every point across every granule",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner()
			cfg.Log = logger.New(properties.LogLevel())

			report, err := batch.Run(cfg)
			if report != nil {
				fmt.Printf("Processed %d tasks: %d succeeded, %d failed\n",
					report.Succeeded+report.Failed, report.Succeeded, report.Failed)
				fmt.Printf("Results written to %s\n", report.OutputDir)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&cfg.PointsPath, "points", "p", "", "CSV point list (No,Lat,Lon)")
	cmd.Flags().StringVarP(&cfg.GranuleDir, "nc-dir", "d", "", "directory holding the .nc granules")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "", "output directory (default: <nc-dir>/ndvi_results)")
	cmd.Flags().Float64VarP(&cfg.RegionSizeKm, "region-size", "r", 20, "region size in kilometers")
	cmd.Flags().IntVarP(&cfg.Workers, "workers", "w", 1, "worker pool size")
	cmd.Flags().BoolVarP(&cfg.Summary, "summary", "s", false, "write the summary CSVs after processing")
	cmd.Flags().BoolVarP(&cfg.TestMode, "test", "t", false, "test mode: first point and first granule only")
	cmd.MarkFlagRequired("points")
	cmd.MarkFlagRequired("nc-dir")
	return cmd
}
