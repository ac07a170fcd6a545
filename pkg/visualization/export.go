package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"heartslicer/internal/models"
)

// Options control how slices are rendered to disk
type Options struct {
	// Format is the raster format (jpg, png, bmp, tiff)
	Format string

	// Colormap is the colour map name
	Colormap string

	// Policy derives display levels from the data; nil uses the full range
	Policy *LevelPolicy

	// Zoom is the upsampling factor applied to every slice
	Zoom float64
}

// DefaultOptions returns jpg output through gnuplot2 at ten times magnification
func DefaultOptions() Options {
	return Options{
		Format:   DefaultFormat,
		Colormap: DefaultColormap,
		Zoom:     10,
	}
}

// Renderer turns 2D arrays into colour-mapped images and writes them out
type Renderer struct {
	opts   Options
	format string
	cmap   *Colormap
}

// NewRenderer validates the options and prepares the colour map
func NewRenderer(opts Options) (*Renderer, error) {
	format, err := NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	cmap, err := GetColormap(opts.Colormap)
	if err != nil {
		return nil, err
	}
	if opts.Zoom == 0 {
		opts.Zoom = 1
	}
	if opts.Zoom < 0 {
		return nil, fmt.Errorf("zoom factor must be positive, got %g", opts.Zoom)
	}
	return &Renderer{opts: opts, format: format, cmap: cmap}, nil
}

// WithPolicy returns a renderer sharing the colour map but using another level policy
func (r *Renderer) WithPolicy(policy *LevelPolicy) *Renderer {
	cp := *r
	cp.opts.Policy = policy
	return &cp
}

// Levels computes the display levels of data under the renderer's policy
func (r *Renderer) Levels(data []float64) Levels {
	return resolveLevels(r.opts.Policy, data)
}

// Render zooms a 2D array and colour-maps it with the given levels
func (r *Renderer) Render(plane mat.Matrix, levels Levels) (*image.RGBA, error) {
	zoomed, err := Zoom(plane, r.opts.Zoom)
	if err != nil {
		return nil, err
	}
	return r.cmap.Colorize(zoomed, levels), nil
}

// SavePlane writes a single 2D array to <name>.<format>.
// Levels are computed from the array itself.
func (r *Renderer) SavePlane(plane *mat.Dense, name string) (string, error) {
	levels := r.Levels(values(plane))
	path := fmt.Sprintf("%s.%s", name, r.format)
	if err := r.saveRendered(plane, levels, path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveImage writes every slice along axis 0 of vol to <name><i>.<format>,
// numbering from 1. Levels are computed once over the whole stack so that
// all slices share the same colour scale.
func (r *Renderer) SaveImage(vol *models.Volume, name string) ([]string, error) {
	levels := r.Levels(vol.Data)
	paths := make([]string, 0, vol.Shape[0])
	for i := 0; i < vol.Shape[0]; i++ {
		path := fmt.Sprintf("%s%d.%s", name, i+1, r.format)
		if err := r.saveRendered(vol.Plane(i), levels, path); err != nil {
			return paths, fmt.Errorf("slice %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *Renderer) saveRendered(plane *mat.Dense, levels Levels, path string) error {
	img, err := r.Render(plane, levels)
	if err != nil {
		return err
	}
	return SaveRaster(img, path, r.format)
}

// SaveRaster encodes img to path, creating parent directories as needed
func SaveRaster(img image.Image, path, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := Encode(file, img, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// Normalize returns a copy of vol divided by its maximum.
// A zero maximum leaves the values unchanged.
func Normalize(vol *models.Volume) *models.Volume {
	out := vol.Clone()
	if len(out.Data) == 0 {
		return out
	}
	if m := floats.Max(out.Data); m != 0 {
		for i := range out.Data {
			out.Data[i] /= m
		}
	}
	return out
}

// values copies the elements of a matrix in row order
func values(m mat.Matrix) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			out = append(out, m.At(y, x))
		}
	}
	return out
}

// RenderStack upsamples the in-plane axes of a slice stack, computes the
// levels over the upsampled data and renders one frame per slice
func (r *Renderer) RenderStack(vol *models.Volume) ([]*image.RGBA, Levels, error) {
	zoomed, err := ZoomStack(vol, r.opts.Zoom)
	if err != nil {
		return nil, Levels{}, err
	}
	levels := r.Levels(zoomed.Data)
	frames := make([]*image.RGBA, zoomed.Shape[0])
	for i := range frames {
		frames[i] = r.cmap.Colorize(zoomed.Plane(i), levels)
	}
	return frames, levels, nil
}
