package visualization

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// labelPadding is the margin around annotation text, in pixels
const labelPadding = 3

// Annotate draws text in the top-left corner of img on a dark backing box
func Annotate(img draw.Image, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()

	bounds := img.Bounds()
	box := image.Rect(bounds.Min.X, bounds.Min.Y,
		bounds.Min.X+width+2*labelPadding, bounds.Min.Y+height+2*labelPadding).Intersect(bounds)
	draw.Draw(img, box, &image.Uniform{C: color.RGBA{A: 0xB0}}, image.Point{}, draw.Over)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(bounds.Min.X + labelPadding),
			Y: fixed.I(bounds.Min.Y+labelPadding) + face.Metrics().Ascent,
		},
	}
	drawer.DrawString(text)
}
