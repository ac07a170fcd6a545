// Package transform holds the geometric volume operations of the pipeline:
// in-plane rotation, cropping and the axis permutations that produce the
// anatomical views.
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"heartslicer/internal/models"
)

// Angles are the two rotations, in degrees, that align a phantom to the
// canonical orientation
type Angles struct {
	// XZ is applied first, within the plane of axes 0 and 2
	XZ float64 `yaml:"xz" toml:"xz"`

	// XY is applied second, within the plane of axes 0 and 1
	XY float64 `yaml:"xy" toml:"xy"`
}

// edge tolerance for samples that land on the last voxel of an axis
const edgeEpsilon = 1e-9

// Rotate applies the xz rotation followed by the xy rotation.
// The two rotations do not commute, so the order is fixed.
func Rotate(vol *models.Volume, angles Angles) (*models.Volume, error) {
	out, err := RotatePlane(vol, angles.XZ, 0, 2)
	if err != nil {
		return nil, fmt.Errorf("xz rotation: %w", err)
	}
	out, err = RotatePlane(out, angles.XY, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("xy rotation: %w", err)
	}
	return out, nil
}

// RotatePlane rotates the volume by angle degrees within the plane spanned by
// axes a and b, about the centre of the array. The shape is preserved, values
// are linearly interpolated and samples that fall outside the input are 0.
//
// For an output position o the source position is R(o-c)+c with
// R = [[cos, sin], [-sin, cos]], c the plane centre and the axes taken in
// ascending order.
func RotatePlane(vol *models.Volume, angle float64, a, b int) (*models.Volume, error) {
	if a == b || a < 0 || b < 0 || a > 2 || b > 2 {
		return nil, fmt.Errorf("invalid rotation axes (%d, %d)", a, b)
	}
	if a > b {
		a, b = b, a
	}
	if angle == 0 {
		return vol.Clone(), nil
	}
	c := 3 - a - b

	na, nb, nc := vol.Shape[a], vol.Shape[b], vol.Shape[c]
	center := r2.Vec{X: float64(na-1) / 2, Y: float64(nb-1) / 2}
	rot := r2.NewRotation(-angle*math.Pi/180, center)

	out := models.NewVolume(vol.Shape)
	var idx, src [3]int
	for p := 0; p < na; p++ {
		for q := 0; q < nb; q++ {
			in := rot.Rotate(r2.Vec{X: float64(p), Y: float64(q)})
			pa, fa, ok := bracket(in.X, na)
			if !ok {
				continue
			}
			pb, fb, ok := bracket(in.Y, nb)
			if !ok {
				continue
			}

			idx[a], idx[b] = p, q
			for r := 0; r < nc; r++ {
				idx[c], src[c] = r, r

				var value float64
				for _, corner := range [4]struct {
					da, db int
					w      float64
				}{
					{0, 0, (1 - fa) * (1 - fb)},
					{1, 0, fa * (1 - fb)},
					{0, 1, (1 - fa) * fb},
					{1, 1, fa * fb},
				} {
					if corner.w == 0 {
						continue
					}
					src[a], src[b] = pa+corner.da, pb+corner.db
					value += corner.w * vol.At(src[0], src[1], src[2])
				}
				out.Set(idx[0], idx[1], idx[2], value)
			}
		}
	}
	return out, nil
}

// bracket returns the lower neighbour and fractional offset of coordinate x
// on an axis of n samples, or false when x lies outside the axis.
func bracket(x float64, n int) (int, float64, bool) {
	if x < -edgeEpsilon || x > float64(n-1)+edgeEpsilon {
		return 0, 0, false
	}
	if n == 1 {
		return 0, 0, true
	}
	lo := int(math.Floor(x))
	if lo < 0 {
		lo = 0
	}
	if lo > n-2 {
		lo = n - 2
	}
	frac := x - float64(lo)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return lo, frac, true
}
