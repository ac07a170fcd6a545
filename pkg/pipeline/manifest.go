package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"heartslicer/pkg/config"
	"heartslicer/pkg/metrics"
)

// ManifestName is the file name of the run manifest inside <output>/Heart
const ManifestName = "manifest.yaml"

// Manifest records what a run wrote and with which settings
type Manifest struct {
	RunID     string         `yaml:"runId"`
	CreatedAt time.Time      `yaml:"createdAt"`
	Config    *config.Config `yaml:"config"`
	Hearts    []Summary      `yaml:"hearts"`

	Similarities []metrics.Similarity `yaml:"similarities,omitempty"`

	// Files are relative to the output directory
	Files []string `yaml:"files"`
}

// WriteManifest stores the manifest of res under the configured output directory
func WriteManifest(cfg *config.Config, res *Result) (string, error) {
	m := Manifest{
		RunID:     res.RunID,
		CreatedAt: res.Started.UTC(),
		Config:    cfg,
		Hearts:    res.Summaries,

		Similarities: res.Similarities,
		Files:        make([]string, 0, len(res.Files)),
	}
	for _, f := range res.Files {
		rel, err := filepath.Rel(cfg.Output.Dir, f)
		if err != nil {
			rel = f
		}
		m.Files = append(m.Files, filepath.ToSlash(rel))
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("error marshaling manifest: %w", err)
	}

	path := filepath.Join(cfg.Output.Dir, "Heart", ManifestName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("error creating manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("error writing manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{Config: config.DefaultConfig()}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	return m, nil
}
