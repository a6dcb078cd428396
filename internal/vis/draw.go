package vis

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// drawable returns img itself when it can be drawn on, or an NRGBA copy.
func drawable(img image.Image) draw.Image {
	if dst, ok := img.(draw.Image); ok {
		return dst
	}
	return imaging.Clone(img)
}

// round converts a box coordinate to a pixel index, rounding half to even.
func round(v float32) int {
	return int(math.RoundToEven(float64(v)))
}

// Rectangle draws the 1-pixel outline of the box with corners (x1, y1) and
// (x2, y2), given relative to the image origin. Corners may be in any order
// and both are part of the outline. Pixels outside dst are skipped.
func Rectangle(dst draw.Image, x1, y1, x2, y2 int, c color.Color) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	b := dst.Bounds()
	x1, x2 = x1+b.Min.X, x2+b.Min.X
	y1, y2 = y1+b.Min.Y, y2+b.Min.Y

	set := func(x, y int) {
		if image.Pt(x, y).In(b) {
			dst.Set(x, y, c)
		}
	}
	for x := max(x1, b.Min.X); x <= min(x2, b.Max.X-1); x++ {
		set(x, y1)
		set(x, y2)
	}
	for y := max(y1, b.Min.Y); y <= min(y2, b.Max.Y-1); y++ {
		set(x1, y)
		set(x2, y)
	}
}
