// Package config provides configuration loading and management for heartslicer.
// It handles loading configuration from YAML or TOML files and provides the
// default values used by the heart slicing pipeline.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"heartslicer/pkg/transform"
	"heartslicer/pkg/visualization"
)

// Config represents the application configuration
type Config struct {
	// Phantom input parameters
	Phantoms struct {
		// Dir is the directory holding the <name>.dat phantom files
		Dir string `yaml:"dir" toml:"dir"`

		// Names lists the phantoms to process, in comparison order
		Names []string `yaml:"names" toml:"names"`

		// Size is the declared (x, y, z) voxel size of every phantom
		Size [3]int `yaml:"size" toml:"size"`

		// Reference is the phantom every other heart is scored against; empty disables scoring
		Reference string `yaml:"reference" toml:"reference"`
	} `yaml:"phantoms" toml:"phantoms"`

	// Geometry parameters
	Geometry struct {
		// Angles align the phantom before cropping
		Angles transform.Angles `yaml:"angles" toml:"angles"`

		// Crop selects the heart region
		Crop transform.CropBounds `yaml:"crop" toml:"crop"`
	} `yaml:"geometry" toml:"geometry"`

	// Rendering parameters
	Render struct {
		// Levels are the level policies, rendered in order
		Levels []visualization.LevelPolicy `yaml:"levels" toml:"levels"`

		// Zoom is the upsampling factor applied to every slice
		Zoom float64 `yaml:"zoom" toml:"zoom"`

		// Format is the raster format of written images
		Format string `yaml:"format" toml:"format"`

		// Colormap is the colour map name
		Colormap string `yaml:"colormap" toml:"colormap"`

		// ComparisonRows is the number of phantoms stacked per comparison column
		ComparisonRows int `yaml:"comparisonRows" toml:"comparisonRows"`
	} `yaml:"render" toml:"render"`

	// Output parameters
	Output struct {
		// Dir is the root of the written image tree
		Dir string `yaml:"dir" toml:"dir"`

		// Manifest controls writing a manifest of every written file
		Manifest bool `yaml:"manifest" toml:"manifest"`
	} `yaml:"output" toml:"output"`

	// Viewer window parameters
	Viewer struct {
		Title  string `yaml:"title" toml:"title"`
		Width  int    `yaml:"width" toml:"width"`
		Height int    `yaml:"height" toml:"height"`
	} `yaml:"viewer" toml:"viewer"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Phantoms.Dir = "Dat phantoms"
	cfg.Phantoms.Names = []string{
		"efg3_cut",
		"fgr3-osem-nonAC",
		"fgr3-osem-AC",
		"efg3cutDefect",
		"fgr3-osem-nonAC-iscemija",
		"fgr3-osem-AC-iscemija",
	}
	cfg.Phantoms.Size = [3]int{128, 128, 100}
	cfg.Phantoms.Reference = "efg3_cut"

	cfg.Geometry.Angles = transform.Angles{XZ: 23, XY: -37}
	cfg.Geometry.Crop = transform.CropBounds{
		X: [2]int{50, 90},
		Y: [2]int{53, 83},
		Z: [2]int{50, 80},
	}

	cfg.Render.Levels = visualization.DefaultPolicies()
	cfg.Render.Zoom = 10
	cfg.Render.Format = visualization.DefaultFormat
	cfg.Render.Colormap = visualization.DefaultColormap
	cfg.Render.ComparisonRows = 3

	cfg.Output.Dir = "Images"
	cfg.Output.Manifest = true

	cfg.Viewer.Title = "Heart visualization"
	cfg.Viewer.Width = 800
	cfg.Viewer.Height = 700

	return cfg
}

// isTOML reports whether the path names a TOML file
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension.
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(configPath) {
		if err := decodeTOML(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// decodeTOML overlays a TOML document on cfg. The toml decoder fills existing
// slice elements in place, so list fields start empty and keep their defaults
// only when the document leaves them out, matching the yaml decoder.
func decodeTOML(data []byte, cfg *Config) error {
	names, levels := cfg.Phantoms.Names, cfg.Render.Levels
	cfg.Phantoms.Names, cfg.Render.Levels = nil, nil

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if !md.IsDefined("phantoms", "names") {
		cfg.Phantoms.Names = names
	}
	if !md.IsDefined("render", "levels") {
		cfg.Render.Levels = levels
	}
	return nil
}

// SaveConfig saves the configuration to a YAML or TOML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate checks that the configuration describes a runnable pipeline
func (c *Config) Validate() error {
	var errs []error

	if len(c.Phantoms.Names) == 0 {
		errs = append(errs, errors.New("no phantoms configured"))
	}
	for axis, n := range c.Phantoms.Size {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("phantom size axis %d must be positive, got %d", axis, n))
		}
	}
	if ref := c.Phantoms.Reference; ref != "" && !slices.Contains(c.Phantoms.Names, ref) {
		errs = append(errs, fmt.Errorf("reference phantom %q is not in the phantom list", ref))
	}
	if err := c.Geometry.Crop.Check(c.Phantoms.Size); err != nil {
		errs = append(errs, err)
	}

	if len(c.Render.Levels) == 0 {
		errs = append(errs, errors.New("no level policies configured"))
	}
	seen := make(map[string]bool)
	for _, lv := range c.Render.Levels {
		if lv.Name == "" {
			errs = append(errs, errors.New("level policy without a name"))
		}
		if seen[lv.Name] {
			errs = append(errs, fmt.Errorf("duplicate level policy %q", lv.Name))
		}
		seen[lv.Name] = true
	}
	if c.Render.Zoom <= 0 {
		errs = append(errs, fmt.Errorf("zoom must be positive, got %g", c.Render.Zoom))
	}
	if _, err := visualization.NormalizeFormat(c.Render.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := visualization.GetColormap(c.Render.Colormap); err != nil {
		errs = append(errs, err)
	}
	if c.Render.ComparisonRows <= 0 {
		errs = append(errs, fmt.Errorf("comparison rows must be positive, got %d", c.Render.ComparisonRows))
	} else if len(c.Phantoms.Names)/c.Render.ComparisonRows == 0 {
		errs = append(errs, fmt.Errorf("comparison rows %d exceed the %d configured phantoms", c.Render.ComparisonRows, len(c.Phantoms.Names)))
	}

	return errors.Join(errs...)
}

// RenderOptions returns the renderer options described by the configuration
func (c *Config) RenderOptions() visualization.Options {
	return visualization.Options{
		Format:   c.Render.Format,
		Colormap: c.Render.Colormap,
		Zoom:     c.Render.Zoom,
	}
}
