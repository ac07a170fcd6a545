package visualization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"heartslicer/internal/models"
)

// zoomedSize returns round(n*factor), rounding halves to even
func zoomedSize(n int, factor float64) int {
	return int(math.RoundToEven(float64(n) * factor))
}

// sampleGrid maps m output positions onto an axis of n input samples with
// the first and last samples aligned, returning lower neighbours and weights
func sampleGrid(n, m int) ([]int, []float64) {
	lo := make([]int, m)
	frac := make([]float64, m)
	if m == 0 {
		return lo, frac
	}
	step := 1.0
	if m > 1 {
		step = float64(n-1) / float64(m-1)
	}
	for i := 0; i < m; i++ {
		x := float64(i) * step
		if n == 1 {
			continue
		}
		l := int(math.Floor(x))
		if l > n-2 {
			l = n - 2
		}
		f := x - float64(l)
		if f > 1 {
			f = 1
		}
		lo[i], frac[i] = l, f
	}
	return lo, frac
}

// Zoom resamples a 2D array by factor using bilinear interpolation.
// The output has round(rows*factor) x round(cols*factor) samples and its
// corner samples equal the input corners.
func Zoom(plane mat.Matrix, factor float64) (*mat.Dense, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("zoom factor must be positive, got %g", factor)
	}
	rows, cols := plane.Dims()
	outRows, outCols := zoomedSize(rows, factor), zoomedSize(cols, factor)
	if outRows == 0 || outCols == 0 {
		return nil, fmt.Errorf("zoom factor %g collapses %dx%d array", factor, rows, cols)
	}

	rowLo, rowFrac := sampleGrid(rows, outRows)
	colLo, colFrac := sampleGrid(cols, outCols)

	at := func(r, c int) float64 {
		if r >= rows {
			r = rows - 1
		}
		if c >= cols {
			c = cols - 1
		}
		return plane.At(r, c)
	}

	out := mat.NewDense(outRows, outCols, nil)
	for y := 0; y < outRows; y++ {
		r, fy := rowLo[y], rowFrac[y]
		for x := 0; x < outCols; x++ {
			c, fx := colLo[x], colFrac[x]
			v := (1-fy)*(1-fx)*at(r, c) + (1-fy)*fx*at(r, c+1) +
				fy*(1-fx)*at(r+1, c) + fy*fx*at(r+1, c+1)
			out.Set(y, x, v)
		}
	}
	return out, nil
}

// ZoomStack zooms every slice of a stack, leaving the slice count unchanged
func ZoomStack(vol *models.Volume, factor float64) (*models.Volume, error) {
	planes := make([]*mat.Dense, vol.Shape[0])
	for i := range planes {
		zoomed, err := Zoom(vol.Plane(i), factor)
		if err != nil {
			return nil, err
		}
		planes[i] = zoomed
	}
	return models.FromPlanes(planes)
}
