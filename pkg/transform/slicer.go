package transform

import (
	"errors"
	"fmt"
	"strings"

	"heartslicer/internal/models"
)

// ErrUnknownAxis is returned for a view selector outside Short, Vertical and Horizontal
var ErrUnknownAxis = errors.New("unknown axis")

// Axis selects one of the cardiac viewing planes
type Axis int

const (
	Short Axis = iota
	Vertical
	Horizontal
)

// AllAxes lists the views in selector order
var AllAxes = []Axis{Short, Vertical, Horizontal}

func (a Axis) String() string {
	switch a {
	case Short:
		return "Short"
	case Vertical:
		return "Vertical"
	case Horizontal:
		return "Horizontal"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis accepts a view name (case-insensitive) or its selector digit
func ParseAxis(s string) (Axis, error) {
	for _, a := range AllAxes {
		if strings.EqualFold(s, a.String()) || s == fmt.Sprint(int(a)) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// SliceToImages reorders the axes of a heart volume so that iterating over
// axis 0 yields the 2D slices of the requested view
func SliceToImages(vol *models.Volume, axis Axis) (*models.Volume, error) {
	data, err := Rot90(vol, 1, 1, 2)
	if err != nil {
		return nil, err
	}
	switch axis {
	case Short:
		return data, nil
	case Vertical:
		return Rot90(data, 1, 0, 2)
	case Horizontal:
		return Rot90(data, -1, 0, 1)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownAxis, int(axis))
}

// Rot90 rotates the volume by k quarter turns in the plane of axes a and b,
// turning from axis a towards axis b
func Rot90(vol *models.Volume, k, a, b int) (*models.Volume, error) {
	if a == b || a < 0 || b < 0 || a > 2 || b > 2 {
		return nil, fmt.Errorf("invalid rotation axes (%d, %d)", a, b)
	}

	perm := [3]int{0, 1, 2}
	perm[a], perm[b] = b, a

	switch ((k % 4) + 4) % 4 {
	case 1:
		return Transpose(Flip(vol, b), perm), nil
	case 2:
		return Flip(Flip(vol, a), b), nil
	case 3:
		return Flip(Transpose(vol, perm), b), nil
	}
	return vol.Clone(), nil
}

// Transpose permutes the axes so that axis i of the result is axis perm[i] of vol
func Transpose(vol *models.Volume, perm [3]int) *models.Volume {
	var shape [3]int
	for i, p := range perm {
		shape[i] = vol.Shape[p]
	}
	out := models.NewVolume(shape)

	var src [3]int
	for k := 0; k < shape[2]; k++ {
		for j := 0; j < shape[1]; j++ {
			for i := 0; i < shape[0]; i++ {
				src[perm[0]], src[perm[1]], src[perm[2]] = i, j, k
				out.Set(i, j, k, vol.At(src[0], src[1], src[2]))
			}
		}
	}
	return out
}

// Flip reverses the order of the voxels along axis
func Flip(vol *models.Volume, axis int) *models.Volume {
	out := models.NewVolume(vol.Shape)
	n := vol.Shape[axis]

	var src [3]int
	for k := 0; k < vol.Shape[2]; k++ {
		for j := 0; j < vol.Shape[1]; j++ {
			for i := 0; i < vol.Shape[0]; i++ {
				src = [3]int{i, j, k}
				src[axis] = n - 1 - src[axis]
				out.Set(i, j, k, vol.At(src[0], src[1], src[2]))
			}
		}
	}
	return out
}
