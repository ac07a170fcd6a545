package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrUnknownColormap is returned for a colour map name that is not registered
var ErrUnknownColormap = errors.New("unknown colour map")

// DefaultColormap is used when no colour map is configured
const DefaultColormap = "gnuplot2"

// lutSize is the number of entries in a colour map lookup table
const lutSize = 256

// Colormap maps normalised intensities in [0, 1] to colours through a lookup table
type Colormap struct {
	Name string
	lut  [lutSize]color.RGBA
}

type channelFunc func(x float64) float64

// The gnuplot formula set; each map picks one formula per channel
var gnuplotFormulas = map[int]channelFunc{
	3:  func(x float64) float64 { return x },
	5:  func(x float64) float64 { return x * x * x },
	7:  math.Sqrt,
	10: func(x float64) float64 { return math.Cos(x * math.Pi / 2) },
	13: func(x float64) float64 { return math.Sin(x * math.Pi) },
	15: func(x float64) float64 { return math.Sin(2 * math.Pi * x) },
	23: func(x float64) float64 { return 3*x - 2 },
	28: func(x float64) float64 { return math.Abs((3*x - 1) / 2) },
	30: func(x float64) float64 { return x/0.32 - 0.78125 },
	31: func(x float64) float64 { return 2*x - 0.84 },
	32: func(x float64) float64 {
		switch {
		case x < 0.25:
			return 4 * x
		case x < 0.92:
			return -2*x + 1.84
		default:
			return x/0.08 - 11.5
		}
	},
	33: func(x float64) float64 { return math.Abs(2*x - 0.5) },
	34: func(x float64) float64 { return 2 * x },
	35: func(x float64) float64 { return 2*x - 0.5 },
	36: func(x float64) float64 { return 2*x - 1 },
}

var colormapFormulas = map[string][3]int{
	"gnuplot":  {7, 5, 15},
	"gnuplot2": {30, 31, 32},
	"afmhot":   {34, 35, 36},
	"ocean":    {23, 28, 3},
	"rainbow":  {33, 13, 10},
	"gray":     {3, 3, 3},
}

// Colormaps lists the registered colour map names
func Colormaps() []string {
	names := make([]string, 0, len(colormapFormulas))
	for name := range colormapFormulas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetColormap builds the lookup table of a registered colour map
func GetColormap(name string) (*Colormap, error) {
	if name == "" {
		name = DefaultColormap
	}
	formulas, ok := colormapFormulas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColormap, name)
	}

	cm := &Colormap{Name: name}
	for i := 0; i < lutSize; i++ {
		x := float64(i) / float64(lutSize-1)
		var ch [3]uint8
		for c, f := range formulas {
			v := math.Max(0, math.Min(1, gnuplotFormulas[f](x)))
			ch[c] = uint8(v * 255)
		}
		cm.lut[i] = color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xFF}
	}
	return cm, nil
}

// At returns the colour of a normalised value. Values outside [0, 1]
// take the colour of the nearest end; NaN is transparent.
func (cm *Colormap) At(v float64) color.RGBA {
	if math.IsNaN(v) {
		return color.RGBA{}
	}
	idx := v * lutSize
	switch {
	case idx < 0:
		idx = 0
	case idx >= lutSize:
		idx = lutSize - 1
	}
	return cm.lut[int(idx)]
}

// Colorize renders a 2D array through the colour map. Rows become image rows.
// Values are normalised with (v-min)/(max-min); a degenerate range maps
// everything to the low end.
func (cm *Colormap) Colorize(plane mat.Matrix, levels Levels) *image.RGBA {
	rows, cols := plane.Dims()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	span := levels.Max - levels.Min
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := plane.At(y, x)
			var norm float64
			if span != 0 {
				norm = (v - levels.Min) / span
			} else if math.IsNaN(v) {
				norm = v
			}
			img.SetRGBA(x, y, cm.At(norm))
		}
	}
	return img
}
