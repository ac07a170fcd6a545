package transform

import (
	"errors"
	"fmt"

	"heartslicer/internal/models"
)

// ErrOutOfBounds is returned when crop bounds do not fit the volume
var ErrOutOfBounds = errors.New("crop bounds out of range")

// CropBounds are half-open [start, end) index ranges per axis
type CropBounds struct {
	X [2]int `yaml:"x" toml:"x"`
	Y [2]int `yaml:"y" toml:"y"`
	Z [2]int `yaml:"z" toml:"z"`
}

// FullBounds returns bounds covering the whole of a volume with the given shape
func FullBounds(shape [3]int) CropBounds {
	return CropBounds{
		X: [2]int{0, shape[0]},
		Y: [2]int{0, shape[1]},
		Z: [2]int{0, shape[2]},
	}
}

// Axes returns the bounds indexed by axis
func (b CropBounds) Axes() [3][2]int {
	return [3][2]int{b.X, b.Y, b.Z}
}

// Shape returns the shape of the cropped volume
func (b CropBounds) Shape() [3]int {
	var shape [3]int
	for i, r := range b.Axes() {
		shape[i] = r[1] - r[0]
	}
	return shape
}

// Check verifies that the bounds select a non-empty region of a volume with the given shape
func (b CropBounds) Check(shape [3]int) error {
	for axis, r := range b.Axes() {
		if r[0] < 0 || r[1] > shape[axis] || r[0] >= r[1] {
			return fmt.Errorf("%w: axis %d range [%d, %d) for size %d", ErrOutOfBounds, axis, r[0], r[1], shape[axis])
		}
	}
	return nil
}

// Crop extracts the sub-volume selected by bounds
func Crop(vol *models.Volume, bounds CropBounds) (*models.Volume, error) {
	if err := bounds.Check(vol.Shape); err != nil {
		return nil, err
	}

	out := models.NewVolume(bounds.Shape())
	for k := 0; k < out.Shape[2]; k++ {
		for j := 0; j < out.Shape[1]; j++ {
			// rows along axis 0 are contiguous in both volumes
			src := vol.Index(bounds.X[0], bounds.Y[0]+j, bounds.Z[0]+k)
			dst := out.Index(0, j, k)
			copy(out.Data[dst:dst+out.Shape[0]], vol.Data[src:src+out.Shape[0]])
		}
	}
	return out, nil
}
