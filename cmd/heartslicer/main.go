package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"heartslicer/pkg/config"
	"heartslicer/pkg/display"
	"heartslicer/pkg/logging"
	"heartslicer/pkg/phantom"
	"heartslicer/pkg/pipeline"
	"heartslicer/pkg/transform"
	"heartslicer/pkg/visualization"
)

var (
	configFile string
	logLevel   string
	logJSON    bool

	profileAxis string
	synthSize   []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "heartslicer",
		Short:         "slice cardiac phantoms along the anatomical axes and render them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.InitLogger("heartslicer", logLevel, logJSON)
			return err
		},
		RunE: runRender,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "heartslicer.yaml", "config file path (yaml or toml); defaults are used when it does not exist")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "export slice images and comparison grids",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "export images, then show the comparison grids in a window",
		Args:  cobra.NoArgs,
		RunE:  runView,
	}

	profileCmd := &cobra.Command{
		Use:   "profile [phantom]",
		Short: "plot the mean intensity of every slice of one heart",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfile,
	}
	profileCmd.Flags().StringVar(&profileAxis, "axis", "Short", "view to profile (Short, Vertical, Horizontal)")

	synthCmd := &cobra.Command{
		Use:   "synth [name]",
		Short: "write a synthetic ramp phantom into the phantom directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runSynth,
	}
	synthCmd.Flags().IntSliceVar(&synthSize, "size", nil, "x,y,z size (defaults to the configured phantom size)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the configuration file",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(renderCmd, viewCmd, profileCmd, synthCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("heartslicer failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("config", configFile).Msg("configuration loaded")
	return cfg, nil
}

func runPipeline(cmd *cobra.Command) (*config.Config, *pipeline.Result, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	p, err := pipeline.New(cfg, log.Logger)
	if err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := p.Run(ctx)
	if err != nil {
		return nil, nil, err
	}

	fmt.Printf("Run %s wrote %d images under %s\n", res.RunID, len(res.Files), filepath.Join(cfg.Output.Dir, "Heart"))
	for _, s := range res.Summaries {
		fmt.Printf("  %-26s heart %v  min %.4g  max %.4g  mean %.4g\n", s.Phantom, s.Shape, s.Min, s.Max, s.Mean)
	}
	for _, s := range res.Similarities {
		fmt.Printf("  %-26s vs %s  rmse %.4f  ssim %.4f  corr %.4f  mi %.3f  entropy diff %.3f\n",
			s.Phantom, s.Reference, s.RMSE, s.SSIM, s.Correlation, s.MI, s.EntropyDiff)
	}
	if res.ManifestPath != "" {
		fmt.Printf("Manifest: %s\n", res.ManifestPath)
	}
	return cfg, res, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	_, _, err := runPipeline(cmd)
	return err
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, res, err := runPipeline(cmd)
	if err != nil {
		return err
	}

	renderer, err := visualization.NewRenderer(cfg.RenderOptions())
	if err != nil {
		return err
	}

	panels := make([]display.Panel, 0, len(res.Panels))
	for i, p := range res.Panels {
		policy := p.Policy
		frames, levels, err := renderer.WithPolicy(&policy).RenderStack(p.Grid)
		if err != nil {
			return fmt.Errorf("%s/%s: %w", policy.Name, p.Axis, err)
		}
		for n, f := range frames {
			visualization.Annotate(f, fmt.Sprintf("%s %s %d/%d", policy.Name, p.Axis, n+1, len(frames)))
		}
		log.Debug().Str("policy", policy.Name).Stringer("axis", p.Axis).
			Float64("min", levels.Min).Float64("max", levels.Max).Msg("prepared panel")

		panels = append(panels, display.Panel{
			Row:    i / len(transform.AllAxes),
			Column: int(p.Axis),
			Frames: frames,
		})
	}

	log.Info().Int("panels", len(panels)).Msg("opening viewer")
	return display.Run(display.Options{
		Title:  cfg.Viewer.Title,
		Width:  cfg.Viewer.Width,
		Height: cfg.Viewer.Height,
	}, panels)
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	axis, err := transform.ParseAxis(profileAxis)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, log.Logger)
	if err != nil {
		return err
	}
	heart, err := p.LoadHeart(args[0])
	if err != nil {
		return err
	}
	slices, err := transform.SliceToImages(heart, axis)
	if err != nil {
		return err
	}

	fmt.Println(pipeline.PlotProfile(pipeline.Profile(slices), fmt.Sprintf("%s %s mean intensity", args[0], axis)))
	return nil
}

func runSynth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	size := cfg.Phantoms.Size
	if len(synthSize) > 0 {
		if len(synthSize) != 3 {
			return fmt.Errorf("size needs three values, got %d", len(synthSize))
		}
		copy(size[:], synthSize)
	}

	path := phantom.Path(cfg.Phantoms.Dir, args[0])
	if err := phantom.Save(path, phantom.Ramp(size)); err != nil {
		return err
	}
	log.Info().Str("path", path).Ints("size", size[:]).Msg("synthetic phantom written")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.CreateDefaultConfigFile(path); err != nil {
		return err
	}
	log.Info().Str("path", path).Str("format", strings.TrimPrefix(filepath.Ext(path), ".")).Msg("default configuration written")
	return nil
}
