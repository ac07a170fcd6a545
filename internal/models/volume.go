package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Volume represents a 3D intensity volume such as a loaded phantom
type Volume struct {
	// Data holds the voxel intensities in column-major order:
	// axis 0 varies fastest, axis 2 slowest
	Data []float64

	// Shape is the number of voxels along axes 0, 1 and 2 (x, y, z)
	Shape [3]int
}

// NewVolume allocates a zero-filled volume of the given shape
func NewVolume(shape [3]int) *Volume {
	return &Volume{
		Data:  make([]float64, shape[0]*shape[1]*shape[2]),
		Shape: shape,
	}
}

// Len returns the number of voxels
func (v *Volume) Len() int {
	return v.Shape[0] * v.Shape[1] * v.Shape[2]
}

// Index returns the flat offset of voxel (i, j, k)
func (v *Volume) Index(i, j, k int) int {
	return i + v.Shape[0]*(j+v.Shape[1]*k)
}

// At returns the value of voxel (i, j, k)
func (v *Volume) At(i, j, k int) float64 {
	return v.Data[v.Index(i, j, k)]
}

// Set stores value at voxel (i, j, k)
func (v *Volume) Set(i, j, k int, value float64) {
	v.Data[v.Index(i, j, k)] = value
}

// Clone returns a deep copy of the volume
func (v *Volume) Clone() *Volume {
	data := make([]float64, len(v.Data))
	copy(data, v.Data)
	return &Volume{Data: data, Shape: v.Shape}
}

// Equal reports whether both volumes have the same shape and values
func (v *Volume) Equal(o *Volume) bool {
	if v.Shape != o.Shape || len(v.Data) != len(o.Data) {
		return false
	}
	for i := range v.Data {
		if v.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Plane returns the 2D slice at position i along axis 0.
// Rows follow axis 1, columns follow axis 2.
func (v *Volume) Plane(i int) *mat.Dense {
	rows, cols := v.Shape[1], v.Shape[2]
	plane := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			plane.Set(r, c, v.At(i, r, c))
		}
	}
	return plane
}

// FromPlanes stacks equally sized planes along axis 0. It is the inverse of Plane.
func FromPlanes(planes []*mat.Dense) (*Volume, error) {
	if len(planes) == 0 {
		return nil, fmt.Errorf("no planes to stack")
	}
	rows, cols := planes[0].Dims()
	vol := NewVolume([3]int{len(planes), rows, cols})
	for i, p := range planes {
		r, c := p.Dims()
		if r != rows || c != cols {
			return nil, fmt.Errorf("plane %d is %dx%d, expected %dx%d", i, r, c, rows, cols)
		}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				vol.Set(i, y, x, p.At(y, x))
			}
		}
	}
	return vol, nil
}
