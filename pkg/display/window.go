// Package display shows comparison stacks in a desktop window. Each panel
// holds one rendered frame per slice; the arrow keys or the mouse wheel step
// through the slices of every panel together.
package display

import (
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"heartslicer/pkg/display/layout"
)

// Panel is one grid cell of the window
type Panel struct {
	Row    int
	Column int
	Frames []*image.RGBA
}

// Options configure the window
type Options struct {
	Title  string
	Width  int
	Height int
}

// Run opens the window and blocks until it is closed or Escape is pressed
func Run(opts Options, panels []Panel) error {
	if len(panels) == 0 {
		return errors.New("nothing to display")
	}

	g := newViewer(panels)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(30)

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type viewer struct {
	panels []Panel
	cells  []layout.Cell
	grid   *layout.Grid
	images [][]*ebiten.Image

	width, height int
}

func newViewer(panels []Panel) *viewer {
	v := &viewer{
		panels: panels,
		cells:  make([]layout.Cell, len(panels)),
		images: make([][]*ebiten.Image, len(panels)),
	}
	for i, p := range panels {
		v.cells[i] = layout.Cell{Row: p.Row, Column: p.Column, Frames: len(p.Frames)}
		v.images[i] = make([]*ebiten.Image, len(p.Frames))
	}
	v.grid = layout.New(v.cells)
	return v
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	step := 0
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		step++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) || inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		step--
	}
	if _, dy := ebiten.Wheel(); dy > 0 {
		step--
	} else if dy < 0 {
		step++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyHome) {
		v.grid.First()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnd) {
		v.grid.Last()
	}

	v.grid.Step(step)
	return nil
}

// frame returns the GPU image for the current slice of panel i, uploading it on first use
func (v *viewer) frame(i int) *ebiten.Image {
	n := v.grid.Frame(len(v.panels[i].Frames))
	if n < 0 {
		return nil
	}
	if v.images[i][n] == nil {
		v.images[i][n] = ebiten.NewImageFromImage(v.panels[i].Frames[n])
	}
	return v.images[i][n]
}

func (v *viewer) Draw(screen *ebiten.Image) {
	for i := range v.panels {
		img := v.frame(i)
		if img == nil {
			continue
		}
		b := img.Bounds()
		scale, x, y := v.grid.Place(v.cells[i], b.Dx(), b.Dy(), v.width, v.height)

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(x, y)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(img, op)
	}
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.width, v.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
