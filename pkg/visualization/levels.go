package visualization

import (
	"gonum.org/v1/gonum/floats"
)

// Levels are the intensities mapped to the low and high ends of a colour map
type Levels struct {
	Min float64
	Max float64
}

// LevelPolicy derives display levels from the data being displayed.
// The bounds are the data minimum and maximum multiplied by the scale factors.
type LevelPolicy struct {
	// Name labels the policy in output paths (Normal, Clipped)
	Name string `yaml:"name" toml:"name"`

	// MinScale multiplies the data minimum
	MinScale float64 `yaml:"minScale" toml:"minScale"`

	// MaxScale multiplies the data maximum
	MaxScale float64 `yaml:"maxScale" toml:"maxScale"`
}

// Normal displays the full data range
func Normal() LevelPolicy {
	return LevelPolicy{Name: "Normal", MinScale: 1, MaxScale: 1}
}

// Clipped raises the floor to twice the minimum and lowers the ceiling to 60% of the maximum
func Clipped() LevelPolicy {
	return LevelPolicy{Name: "Clipped", MinScale: 2, MaxScale: 0.6}
}

// DefaultPolicies returns the policies rendered by default, in output order
func DefaultPolicies() []LevelPolicy {
	return []LevelPolicy{Normal(), Clipped()}
}

// Bounds computes the display levels for data
func (p LevelPolicy) Bounds(data []float64) Levels {
	lv := FullRange(data)
	return Levels{Min: lv.Min * p.MinScale, Max: lv.Max * p.MaxScale}
}

// FullRange returns the minimum and maximum of data
func FullRange(data []float64) Levels {
	if len(data) == 0 {
		return Levels{}
	}
	return Levels{Min: floats.Min(data), Max: floats.Max(data)}
}

// resolveLevels applies policy when set and falls back to the full range
func resolveLevels(policy *LevelPolicy, data []float64) Levels {
	if policy == nil {
		return FullRange(data)
	}
	return policy.Bounds(data)
}
