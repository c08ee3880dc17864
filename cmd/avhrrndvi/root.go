package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "avhrrndvi",
		Short:         "Extract NDVI regions from NOAA AVHRR surface-reflectance granules",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Optional .env with NDVI_* overrides.
			_ = godotenv.Load()
		},
	}

	root.AddCommand(newDownloadCmd(), newVisualizeCmd(), newBatchCmd())
	return root
}

func printBanner() {
	banner := figure.NewFigure("AVHRR NDVI", "small", true)
	color.Cyan(banner.String())
	fmt.Println()
}
