package pipeline_test

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"heartslicer/pkg/config"
	"heartslicer/pkg/phantom"
	"heartslicer/pkg/pipeline"
	"heartslicer/pkg/transform"
	"heartslicer/pkg/visualization"
)

func grayRange(paths []string) (lo, hi uint8) {
	lo, hi = 255, 0
	for _, p := range paths {
		file, err := os.Open(p)
		Expect(err).NotTo(HaveOccurred())
		img, err := png.Decode(file)
		file.Close()
		Expect(err).NotTo(HaveOccurred())

		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, _, _, _ := img.At(x, y).RGBA()
				v := uint8(r >> 8)
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
		}
	}
	return lo, hi
}

func imageSize(path string) image.Point {
	file, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer file.Close()
	cfg, err := png.DecodeConfig(file)
	Expect(err).NotTo(HaveOccurred())
	return image.Pt(cfg.Width, cfg.Height)
}

var _ = Describe("Pipeline", func() {
	var (
		dir string
		cfg *config.Config
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()

		cfg = config.DefaultConfig()
		cfg.Phantoms.Dir = filepath.Join(dir, "Dat phantoms")
		cfg.Output.Dir = filepath.Join(dir, "Images")
		cfg.Render.Format = "png"
		cfg.Render.Colormap = "gray"
		cfg.Render.Zoom = 1
	})

	Context("with a full-size ramp phantom", func() {
		size := [3]int{128, 128, 100}

		BeforeEach(func() {
			Expect(phantom.Save(phantom.Path(cfg.Phantoms.Dir, "ramp"), phantom.Ramp(size))).To(Succeed())

			cfg.Phantoms.Names = []string{"ramp"}
			cfg.Phantoms.Reference = ""
			cfg.Phantoms.Size = size
			cfg.Geometry.Angles = transform.Angles{}
			cfg.Geometry.Crop = transform.FullBounds(size)
			cfg.Render.Levels = []visualization.LevelPolicy{visualization.Normal()}
			cfg.Render.ComparisonRows = 1
		})

		It("exports short-axis slices spanning the ramp's full range", func() {
			p, err := pipeline.New(cfg, zerolog.Nop())
			Expect(err).NotTo(HaveOccurred())

			heart, err := p.LoadHeart("ramp")
			Expect(err).NotTo(HaveOccurred())
			Expect(heart.Shape).To(Equal(size))

			slices, err := transform.SliceToImages(heart, transform.Short)
			Expect(err).NotTo(HaveOccurred())
			Expect(slices.Shape).To(Equal([3]int{128, 100, 128}))

			renderer, err := visualization.NewRenderer(cfg.RenderOptions())
			Expect(err).NotTo(HaveOccurred())
			levels := renderer.Levels(slices.Data)
			Expect(levels.Min).To(BeNumerically("==", 0))
			Expect(levels.Max).To(BeNumerically("==", 128*128*100-1))

			paths, err := renderer.SaveImage(slices, filepath.Join(cfg.Output.Dir, "short"))
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(HaveLen(128))
			Expect(imageSize(paths[0])).To(Equal(image.Pt(128, 100)))

			lo, hi := grayRange(paths)
			Expect(lo).To(BeNumerically("==", 0))
			Expect(hi).To(BeNumerically("==", 255))
		})

		It("runs every axis and writes a manifest", func() {
			p, err := pipeline.New(cfg, zerolog.Nop())
			Expect(err).NotTo(HaveOccurred())

			res, err := p.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			// Short and Vertical give 128 slices, Horizontal 100; each once per phantom and once as comparison
			Expect(res.Files).To(HaveLen(2 * (128 + 128 + 100)))
			Expect(res.Panels).To(HaveLen(3))
			Expect(res.Summaries).To(HaveLen(1))
			Expect(res.Similarities).To(BeEmpty())
			Expect(res.Summaries[0].Min).To(BeNumerically("==", 0))
			Expect(res.Summaries[0].Max).To(BeNumerically("==", 128*128*100-1))

			Expect(filepath.Join(cfg.Output.Dir, "Heart", "Normal", "ramp", "Short", "short1.png")).To(BeAnExistingFile())
			Expect(filepath.Join(cfg.Output.Dir, "Heart", "ComparisonNormal", "Horizontal", "horizontal100.png")).To(BeAnExistingFile())

			m, err := pipeline.ReadManifest(res.ManifestPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.RunID).To(Equal(res.RunID))
			Expect(m.Files).To(HaveLen(len(res.Files)))
			Expect(m.Files[0]).To(Equal("Heart/Normal/ramp/Short/short1.png"))
		})
	})

	Context("with six small phantoms", func() {
		size := [3]int{12, 10, 8}

		BeforeEach(func() {
			cfg.Phantoms.Size = size
			cfg.Geometry.Crop = transform.CropBounds{X: [2]int{2, 10}, Y: [2]int{1, 7}, Z: [2]int{2, 6}}
			cfg.Render.Zoom = 2
			for i, name := range cfg.Phantoms.Names {
				vol := phantom.Ramp(size)
				for j := range vol.Data {
					vol.Data[j] += float64(i * 1000)
				}
				Expect(phantom.Save(phantom.Path(cfg.Phantoms.Dir, name), vol)).To(Succeed())
			}
		})

		It("builds a comparison grid per policy and axis", func() {
			p, err := pipeline.New(cfg, zerolog.Nop())
			Expect(err).NotTo(HaveOccurred())

			res, err := p.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Panels).To(HaveLen(6))
			Expect(res.Similarities).To(HaveLen(5))
			for _, s := range res.Similarities {
				Expect(s.Reference).To(Equal("efg3_cut"))
				Expect(s.Phantom).NotTo(Equal("efg3_cut"))
			}

			// Heart is 8x6x4; the short view is 8 slices of 4x6, tiled 3 high and 2 wide
			short := res.Panels[0]
			Expect(short.Policy.Name).To(Equal("Normal"))
			Expect(short.Axis).To(Equal(transform.Short))
			Expect(short.Grid.Shape).To(Equal([3]int{8, 12, 12}))
			Expect(visualization.FullRange(short.Grid.Data).Max).To(BeNumerically("==", 1))

			clipped := res.Panels[3]
			Expect(clipped.Policy.Name).To(Equal("Clipped"))
			Expect(filepath.Join(cfg.Output.Dir, "Heart", "ComparisonClipped", "Short", "short8.png")).To(BeAnExistingFile())
			Expect(filepath.Join(cfg.Output.Dir, "Heart", "Clipped", "fgr3-osem-AC-iscemija", "Vertical", "vertical1.png")).To(BeAnExistingFile())
			Expect(imageSize(filepath.Join(cfg.Output.Dir, "Heart", "ComparisonNormal", "Short", "short1.png"))).To(Equal(image.Pt(24, 24)))
		})

		It("stops when the context is cancelled", func() {
			p, err := pipeline.New(cfg, zerolog.Nop())
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = p.Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
		})

		It("reports a missing phantom", func() {
			cfg.Phantoms.Names = append(cfg.Phantoms.Names, "absent")
			p, err := pipeline.New(cfg, zerolog.Nop())
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Run(context.Background())
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	It("rejects an invalid configuration", func() {
		cfg.Geometry.Crop.Z = [2]int{50, 500}
		_, err := pipeline.New(cfg, zerolog.Nop())
		Expect(err).To(MatchError(transform.ErrOutOfBounds))
	})
})
