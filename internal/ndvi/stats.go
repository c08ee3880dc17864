package ndvi

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Stats summarizes the valid cells of a region window. With zero valid
// cells every statistic is NaN and the ratio is 0. StdDev is the
// population standard deviation (divide by N).
type Stats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	StdDev float64

	ValidCells int
	TotalCells int
	ValidRatio float64 // percent
}

func Summarize(g Grid) Stats {
	var values []float64
	total := 0
	for r := range g.Values {
		for c := range g.Values[r] {
			total++
			if g.Valid[r][c] {
				values = append(values, g.Values[r][c])
			}
		}
	}

	s := Stats{
		ValidCells: len(values),
		TotalCells: total,
	}
	if total > 0 {
		s.ValidRatio = float64(len(values)) / float64(total) * 100
	}

	s.Mean = reduce(stats.Mean, values)
	s.Median = reduce(stats.Median, values)
	s.Min = reduce(stats.Min, values)
	s.Max = reduce(stats.Max, values)
	s.StdDev = reduce(stats.StandardDeviationPopulation, values)
	return s
}

func reduce(f func(stats.Float64Data) (float64, error), values []float64) float64 {
	v, err := f(values)
	if err != nil {
		return math.NaN()
	}
	return v
}
