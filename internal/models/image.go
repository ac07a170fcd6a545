package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ImageTag identifies where a rendered slice stack belongs
type ImageTag struct {
	// Phantom is the phantom name, empty for comparison grids
	Phantom string

	// Axis is the anatomical view name (Short, Vertical, Horizontal)
	Axis string

	// Policy is the level policy name (Normal, Clipped)
	Policy string
}

// Comparison reports whether the tag refers to a multi-phantom comparison grid
func (t ImageTag) Comparison() bool {
	return t.Phantom == ""
}

// Stem returns the output path without slice number and extension:
// <root>/Heart/<Policy>/<phantom>/<Axis>/<axis> for phantom images and
// <root>/Heart/Comparison<Policy>/<Axis>/<axis> for comparison grids.
func (t ImageTag) Stem(root string) string {
	base := strings.ToLower(t.Axis)
	if t.Comparison() {
		return filepath.Join(root, "Heart", "Comparison"+t.Policy, t.Axis, base)
	}
	return filepath.Join(root, "Heart", t.Policy, t.Phantom, t.Axis, base)
}

func (t ImageTag) String() string {
	if t.Comparison() {
		return fmt.Sprintf("comparison/%s/%s", t.Policy, t.Axis)
	}
	return fmt.Sprintf("%s/%s/%s", t.Phantom, t.Policy, t.Axis)
}
