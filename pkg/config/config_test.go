package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Phantoms.Names) != 6 {
		t.Errorf("expected 6 phantoms, got %d", len(cfg.Phantoms.Names))
	}
	if cfg.Phantoms.Size != [3]int{128, 128, 100} {
		t.Errorf("expected size [128 128 100], got %v", cfg.Phantoms.Size)
	}
	if cfg.Geometry.Angles.XZ != 23 || cfg.Geometry.Angles.XY != -37 {
		t.Errorf("expected angles 23/-37, got %+v", cfg.Geometry.Angles)
	}
	if cfg.Geometry.Crop.Shape() != [3]int{40, 30, 30} {
		t.Errorf("expected crop shape [40 30 30], got %v", cfg.Geometry.Crop.Shape())
	}
	if len(cfg.Render.Levels) != 2 || cfg.Render.Levels[0].Name != "Normal" || cfg.Render.Levels[1].Name != "Clipped" {
		t.Errorf("expected Normal and Clipped levels, got %+v", cfg.Render.Levels)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if cfg.Render.Zoom != 10 {
		t.Errorf("expected default zoom, got %f", cfg.Render.Zoom)
	}

	cfg, err = LoadConfig("")
	if err != nil || cfg == nil {
		t.Fatalf("expected defaults for empty path, got %v", err)
	}
}

func TestLoadConfig_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heart.yaml")
	data := `
phantoms:
  names: [synthetic]
  reference: synthetic
  size: [16, 16, 10]
geometry:
  angles: {xz: 0, xy: 0}
  crop:
    x: [0, 16]
    y: [2, 14]
    z: [0, 10]
render:
  zoom: 2
  format: png
  comparisonRows: 1
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Phantoms.Reference != "synthetic" {
		t.Errorf("expected reference override, got %q", cfg.Phantoms.Reference)
	}
	if len(cfg.Phantoms.Names) != 1 || cfg.Phantoms.Names[0] != "synthetic" {
		t.Errorf("expected phantom override, got %v", cfg.Phantoms.Names)
	}
	if cfg.Phantoms.Size != [3]int{16, 16, 10} {
		t.Errorf("expected size override, got %v", cfg.Phantoms.Size)
	}
	if cfg.Geometry.Crop.Y != [2]int{2, 14} {
		t.Errorf("expected crop override, got %v", cfg.Geometry.Crop.Y)
	}
	if cfg.Render.Format != "png" || cfg.Render.Zoom != 2 {
		t.Errorf("expected render overrides, got %+v", cfg.Render)
	}
	// untouched values keep their defaults, rows follow the override
	if cfg.Render.Colormap != "gnuplot2" || cfg.Render.ComparisonRows != 1 {
		t.Errorf("expected defaults to survive, got %+v", cfg.Render)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("render: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"heart.yaml", "heart.toml"} {
		path := filepath.Join(dir, "nested", name)
		if err := CreateDefaultConfigFile(path); err != nil {
			t.Fatalf("%s: CreateDefaultConfigFile failed: %v", name, err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("%s: LoadConfig failed: %v", name, err)
		}
		def := DefaultConfig()
		if cfg.Geometry != def.Geometry {
			t.Errorf("%s: geometry changed: %+v", name, cfg.Geometry)
		}
		if len(cfg.Render.Levels) != 2 || cfg.Render.Levels[1] != def.Render.Levels[1] {
			t.Errorf("%s: levels changed: %+v", name, cfg.Render.Levels)
		}
		if cfg.Phantoms.Dir != def.Phantoms.Dir {
			t.Errorf("%s: phantom dir changed: %q", name, cfg.Phantoms.Dir)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"crop outside size", func(c *Config) { c.Geometry.Crop.X = [2]int{50, 200} }},
		{"no phantoms", func(c *Config) { c.Phantoms.Names = nil }},
		{"zero zoom", func(c *Config) { c.Render.Zoom = 0 }},
		{"unknown format", func(c *Config) { c.Render.Format = "gif" }},
		{"unknown colormap", func(c *Config) { c.Render.Colormap = "nope" }},
		{"zero rows", func(c *Config) { c.Render.ComparisonRows = 0 }},
		{"no levels", func(c *Config) { c.Render.Levels = nil }},
		{"unknown reference", func(c *Config) { c.Phantoms.Reference = "missing" }},
		{"duplicate levels", func(c *Config) { c.Render.Levels[1].Name = "Normal" }},
		{"rows exceed phantoms", func(c *Config) { c.Render.ComparisonRows = len(c.Phantoms.Names) + 1 }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

// TestLoadConfig_FormatsAgree verifies that a partial level override reads
// the same from YAML and TOML, and that omitted lists keep their defaults
func TestLoadConfig_FormatsAgree(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"heart.yaml": "render:\n  levels:\n    - name: Wide\n      maxScale: 0.8\n",
		"heart.toml": "[[render.levels]]\nname = \"Wide\"\nmaxScale = 0.8\n",
	}

	loaded := make(map[string]*Config)
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("%s: LoadConfig failed: %v", name, err)
		}
		loaded[name] = cfg
	}

	yml, tml := loaded["heart.yaml"], loaded["heart.toml"]
	if len(tml.Render.Levels) != 1 {
		t.Fatalf("expected 1 level policy from toml, got %+v", tml.Render.Levels)
	}
	if !reflect.DeepEqual(yml.Render.Levels, tml.Render.Levels) {
		t.Errorf("yaml levels %+v differ from toml levels %+v", yml.Render.Levels, tml.Render.Levels)
	}
	if lv := tml.Render.Levels[0]; lv.MinScale != 0 || lv.MaxScale != 0.8 {
		t.Errorf("expected Wide policy with scales 0/0.8, got %+v", lv)
	}
	if !reflect.DeepEqual(tml.Phantoms.Names, DefaultConfig().Phantoms.Names) {
		t.Errorf("expected default phantom names, got %v", tml.Phantoms.Names)
	}
}
