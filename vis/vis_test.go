// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package vis_test

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/detkit/vis"
)

func TestLabelBaselineAtY(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	const x, y = 2, 20
	vis.Label(img, x, y, "X", vis.DetectionColor)

	minY, maxY := -1, -1
	for py := 0; py < 40; py++ {
		for px := 0; px < 40; px++ {
			if img.NRGBAAt(px, py) != (color.NRGBA{255, 255, 255, 255}) {
				if minY < 0 {
					minY = py
				}
				maxY = py
			}
		}
	}
	require.GreaterOrEqual(t, minY, 0, "label drew nothing")
	assert.Less(t, maxY, y, "glyph without descender ends above the baseline")
	assert.GreaterOrEqual(t, minY, y-13)
}
