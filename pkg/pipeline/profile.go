package pipeline

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/stat"

	"heartslicer/internal/models"
)

// Profile returns the mean intensity of every slice along axis 0
func Profile(vol *models.Volume) []float64 {
	means := make([]float64, vol.Shape[0])
	for i := range means {
		plane := vol.Plane(i)
		means[i] = stat.Mean(plane.RawMatrix().Data, nil)
	}
	return means
}

// PlotProfile draws a slice profile as a terminal line chart
func PlotProfile(values []float64, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("%s (%d slices)", caption, len(values))),
	)
}
