package vis

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// labelOffset is the baseline distance below the top-left box corner.
const labelOffset = 15

// Label writes text with its baseline starting at (x, y) relative to the
// image origin, using a 7x13 bitmap face.
func Label(dst draw.Image, x, y int, text string, c color.Color) {
	b := dst.Bounds()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(b.Min.X+x, b.Min.Y+y),
	}
	d.DrawString(text)
}
