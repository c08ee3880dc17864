package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/logger"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/processor"
	"github.com/vegwatch/avhrr-ndvi-cli/internal/properties"
)

func newVisualizeCmd() *cobra.Command {
	var (
		file       string
		output     string
		lat, lon   float64
		regionSize float64
		statsCSV   bool
		noDisplay  bool
	)

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Render the NDVI window around a point for one granule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = processor.DefaultImageName(file, lat, lon, regionSize)
			}

			cfg := processor.Config{
				RegionSizeKm: regionSize,
				ImagePath:    output,
				Quiet:        noDisplay,
				Log:          logger.New(properties.LogLevel()),
			}
			if statsCSV {
				cfg.StatsPath = strings.TrimSuffix(output, ".png") + "_stats.csv"
			}

			res, err := processor.Process(cfg, file, processor.Point{Lat: lat, Lon: lon})
			if err != nil {
				return err
			}

			fmt.Printf("NDVI image saved to %s\n", res.ImagePath)
			if res.StatsPath != "" {
				fmt.Printf("Statistics saved to %s\n", res.StatsPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "NetCDF granule to process")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output image path (derived from the granule name when empty)")
	cmd.Flags().Float64VarP(&lat, "lat", "y", 0, "center latitude of the region")
	cmd.Flags().Float64VarP(&lon, "lon", "x", 0, "center longitude of the region")
	cmd.Flags().Float64VarP(&regionSize, "region-size", "r", 20, "region size in kilometers")
	cmd.Flags().BoolVarP(&statsCSV, "stats", "s", false, "write the NDVI statistics CSV next to the image")
	cmd.Flags().BoolVarP(&noDisplay, "no-display", "n", false, "suppress the statistics report on stdout")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	return cmd
}
