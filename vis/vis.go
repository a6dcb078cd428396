// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vis draws detections and region proposals onto images.
//
// Example:
//
//	img, err := imaging.Open("frame.jpg")
//	out, err := vis.DrawLabeledDetections(img, "person", dets, vis.DefaultThreshold)
//	err = imaging.Save(out, "frame_det.png")
package vis

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/born-ml/detkit/internal/tensor"
	"github.com/born-ml/detkit/internal/vis"
)

// Overlay defaults.
const (
	DefaultThreshold = vis.DefaultThreshold
	MaxDetections    = vis.MaxDetections
	NumProposals     = vis.NumProposals
)

// Overlay colors.
var (
	DetectionColor = vis.DetectionColor
	ProposalColor  = vis.ProposalColor
)

// Errors.
var (
	ErrShape           = vis.ErrShape
	ErrTooFewProposals = vis.ErrTooFewProposals
)

// DrawDetections draws boxes for rows of dets ([N, K>=5], score last) whose
// score exceeds thresh.
func DrawDetections[B tensor.Backend](img image.Image, dets *tensor.Tensor[float32, B], thresh float32) (draw.Image, error) {
	return vis.DrawDetections(img, dets, thresh)
}

// DrawLabeledDetections is DrawDetections with "<className>: <score>" captions.
func DrawLabeledDetections[B tensor.Backend](img image.Image, className string, dets *tensor.Tensor[float32, B], thresh float32) (draw.Image, error) {
	return vis.DrawLabeledDetections(img, className, dets, thresh)
}

// DrawProposals draws the first NumProposals boxes of batch 0 of rois
// ([B, N, 5]). thresh is not applied.
func DrawProposals[B tensor.Backend](img image.Image, rois *tensor.Tensor[float32, B], thresh float32) (draw.Image, error) {
	return vis.DrawProposals(img, rois, thresh)
}

// Rectangle draws a one-pixel outline with inclusive corners, clipped to dst.
func Rectangle(dst draw.Image, x1, y1, x2, y2 int, c color.Color) {
	vis.Rectangle(dst, x1, y1, x2, y2, c)
}

// Label writes text in a 7x13 bitmap face with its baseline starting at
// (x, y). DrawLabeledDetections places captions 15 pixels below a box's
// top-left corner.
func Label(dst draw.Image, x, y int, text string, c color.Color) {
	vis.Label(dst, x, y, text, c)
}
