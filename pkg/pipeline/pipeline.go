// Package pipeline runs the heart slicing workflow: every configured phantom
// is loaded, aligned and cropped once, then sliced along each anatomical axis
// and rendered under each level policy, together with a comparison grid of
// all phantoms.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"heartslicer/internal/models"
	"heartslicer/pkg/config"
	"heartslicer/pkg/metrics"
	"heartslicer/pkg/phantom"
	"heartslicer/pkg/transform"
	"heartslicer/pkg/visualization"
)

// Panel is the comparison stack of one (level policy, axis) cell
type Panel struct {
	Policy visualization.LevelPolicy
	Axis   transform.Axis

	// Grid is the normalised comparison stack, one slice per entry along axis 0
	Grid *models.Volume
}

// Summary describes one cropped heart volume
type Summary struct {
	Phantom string  `yaml:"phantom"`
	Shape   [3]int  `yaml:"shape"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Mean    float64 `yaml:"mean"`
}

// Result collects everything a run produced
type Result struct {
	RunID     string
	Started   time.Time
	Files     []string
	Panels    []Panel
	Summaries []Summary

	// Similarities score every heart against the reference phantom
	Similarities []metrics.Similarity

	// ManifestPath is empty when no manifest was written
	ManifestPath string
}

// Pipeline holds the configuration and state of a heart slicing run
type Pipeline struct {
	cfg      *config.Config
	log      zerolog.Logger
	renderer *visualization.Renderer

	// hearts holds the cropped volumes in configuration order
	hearts []*models.Volume
}

// New validates cfg and prepares the renderer
func New(cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	renderer, err := visualization.NewRenderer(cfg.RenderOptions())
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		log:      logger.With().Str("component", "pipeline").Logger(),
		renderer: renderer,
	}, nil
}

// LoadHeart loads the named phantom, aligns it and crops the heart region
func (p *Pipeline) LoadHeart(name string) (*models.Volume, error) {
	path := phantom.Path(p.cfg.Phantoms.Dir, name)
	vol, err := phantom.Load(path, p.cfg.Phantoms.Size)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Str("phantom", name).Str("path", path).Ints("shape", vol.Shape[:]).Msg("loaded phantom")

	vol, err = transform.Rotate(vol, p.cfg.Geometry.Angles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	heart, err := transform.Crop(vol, p.cfg.Geometry.Crop)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return heart, nil
}

// Run executes the whole workflow and writes every image under the output directory.
// Cancellation is honoured between phantoms and between (policy, axis) cells.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	p.log.Info().Str("run", res.RunID).Int("phantoms", len(p.cfg.Phantoms.Names)).Msg("starting run")

	p.hearts = p.hearts[:0]
	for _, name := range p.cfg.Phantoms.Names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		heart, err := p.LoadHeart(name)
		if err != nil {
			return res, err
		}
		p.hearts = append(p.hearts, heart)
		res.Summaries = append(res.Summaries, summarize(name, heart))
		p.log.Info().Str("phantom", name).Ints("heart", heart.Shape[:]).Msg("prepared heart")
	}

	sims, err := p.score()
	if err != nil {
		return res, err
	}
	res.Similarities = sims

	for i := range p.cfg.Render.Levels {
		policy := p.cfg.Render.Levels[i]
		for _, axis := range transform.AllAxes {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			panel, files, err := p.renderCell(policy, axis)
			res.Files = append(res.Files, files...)
			if err != nil {
				return res, fmt.Errorf("%s/%s: %w", policy.Name, axis, err)
			}
			res.Panels = append(res.Panels, panel)
		}
	}

	if p.cfg.Output.Manifest {
		path, err := WriteManifest(p.cfg, res)
		if err != nil {
			return res, err
		}
		res.ManifestPath = path
	}

	p.log.Info().Str("run", res.RunID).Int("files", len(res.Files)).
		Dur("elapsed", time.Since(res.Started)).Str("output", p.cfg.Output.Dir).Msg("run complete")
	return res, nil
}

// renderCell exports every phantom's slices for one policy and axis, then
// the comparison grid built from the normalised stacks
func (p *Pipeline) renderCell(policy visualization.LevelPolicy, axis transform.Axis) (Panel, []string, error) {
	renderer := p.renderer.WithPolicy(&policy)
	var files []string

	stacks := make([]*models.Volume, 0, len(p.hearts))
	for i, heart := range p.hearts {
		name := p.cfg.Phantoms.Names[i]
		stack, err := transform.SliceToImages(heart, axis)
		if err != nil {
			return Panel{}, files, err
		}

		tag := models.ImageTag{Phantom: name, Axis: axis.String(), Policy: policy.Name}
		written, err := renderer.SaveImage(stack, tag.Stem(p.cfg.Output.Dir))
		files = append(files, written...)
		if err != nil {
			return Panel{}, files, fmt.Errorf("%s: %w", name, err)
		}
		p.log.Debug().Stringer("tag", tag).Int("slices", len(written)).Msg("exported slices")

		stacks = append(stacks, visualization.Normalize(stack))
	}

	grid, err := visualization.ComparisonGrid(stacks, p.cfg.Render.ComparisonRows)
	if err != nil {
		return Panel{}, files, err
	}
	tag := models.ImageTag{Axis: axis.String(), Policy: policy.Name}
	written, err := renderer.SaveImage(grid, tag.Stem(p.cfg.Output.Dir))
	files = append(files, written...)
	if err != nil {
		return Panel{}, files, fmt.Errorf("comparison: %w", err)
	}
	p.log.Info().Stringer("tag", tag).Ints("grid", grid.Shape[:]).Msg("exported comparison")

	return Panel{Policy: policy, Axis: axis, Grid: grid}, files, nil
}

// score compares every heart with the reference heart
func (p *Pipeline) score() ([]metrics.Similarity, error) {
	ref := p.cfg.Phantoms.Reference
	if ref == "" {
		return nil, nil
	}
	refIdx := slices.Index(p.cfg.Phantoms.Names, ref)
	if refIdx < 0 {
		return nil, fmt.Errorf("reference phantom %q is not loaded", ref)
	}

	var sims []metrics.Similarity
	for i, heart := range p.hearts {
		name := p.cfg.Phantoms.Names[i]
		if i == refIdx {
			continue
		}
		s, err := metrics.Compare(name, heart, ref, p.hearts[refIdx])
		if err != nil {
			return nil, err
		}
		p.log.Info().Str("phantom", name).Str("reference", ref).
			Float64("rmse", s.RMSE).Float64("ssim", s.SSIM).Float64("correlation", s.Correlation).Msg("scored heart")
		sims = append(sims, s)
	}
	return sims, nil
}

func summarize(name string, vol *models.Volume) Summary {
	return Summary{
		Phantom: name,
		Shape:   vol.Shape,
		Min:     floats.Min(vol.Data),
		Max:     floats.Max(vol.Data),
		Mean:    stat.Mean(vol.Data, nil),
	}
}
