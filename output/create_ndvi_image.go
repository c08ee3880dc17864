// Package output renders extracted NDVI windows as PNG rasters.
package output

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/vegwatch/avhrr-ndvi-cli/internal/ndvi"
)

// maxImageSide bounds the rendered raster; cells are scaled up to
// integer-sized quads so small windows stay legible.
const maxImageSide = 800

type rgb struct {
	r, g, b float64
}

// Red through yellow to green, the usual vegetation ramp.
var (
	rampLow  = rgb{0.65, 0.0, 0.15}
	rampMid  = rgb{1.0, 1.0, 0.75}
	rampHigh = rgb{0.0, 0.4, 0.2}
	invalid  = rgb{0.2, 0.2, 0.2}
)

// CreateNDVIImage renders the region grid to path. Each cell becomes a
// colored quad on the red-yellow-green ramp over [-1, 1], invalid cells
// are dark gray, and the nearest-to-center cell is marked.
func CreateNDVIImage(path string, grid ndvi.Grid, centerRow, centerCol int) error {
	rows, cols := grid.Rows(), grid.Cols()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("cannot render empty region")
	}

	cell := maxImageSide / maxInt(rows, cols)
	if cell < 1 {
		cell = 1
	}
	width, height := cols*cell, rows*cell

	dc := gg.NewContext(width, height)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			col := invalid
			if grid.Valid[r][c] {
				col = rampColor(grid.Values[r][c])
			}
			dc.SetRGB(col.r, col.g, col.b)
			dc.DrawRectangle(float64(c*cell), float64(r*cell), float64(cell), float64(cell))
			dc.Fill()
		}
	}

	// Window frame and center marker.
	dc.SetRGB(1, 0, 0)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(width-2), float64(height-2))
	dc.Stroke()
	if centerRow >= 0 && centerRow < rows && centerCol >= 0 && centerCol < cols {
		dc.DrawCircle(float64(centerCol*cell+cell/2), float64(centerRow*cell+cell/2), float64(cell)/2+3)
		dc.Stroke()
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save NDVI image %s: %w", path, err)
	}
	return nil
}

// rampColor maps an NDVI value in [-1, 1] through the two-segment ramp.
func rampColor(v float64) rgb {
	t := (v + 1) / 2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if t < 0.5 {
		return lerp(rampLow, rampMid, t*2)
	}
	return lerp(rampMid, rampHigh, (t-0.5)*2)
}

func lerp(a, b rgb, t float64) rgb {
	return rgb{
		r: a.r + (b.r-a.r)*t,
		g: a.g + (b.g-a.g)*t,
		b: a.b + (b.b-a.b)*t,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
