package vis

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/born-ml/detkit/internal/tensor"
)

// Overlay defaults.
const (
	DefaultThreshold = 0.8 // minimum score for a detection to be drawn
	MaxDetections    = 100 // rows of dets considered
	NumProposals     = 100 // rows of rois drawn
)

// Overlay colors.
var (
	DetectionColor = color.RGBA{R: 204, A: 255}
	ProposalColor  = color.RGBA{G: 204, A: 255}
)

// DrawDetections draws every detection among the first MaxDetections rows
// of dets whose score exceeds thresh.
//
// dets has shape [N, K] with K >= 5: columns 0-3 are x1, y1, x2, y2 and the
// last column is the score.
//
// Returns the image drawn on: img itself when it implements draw.Image,
// otherwise an NRGBA copy.
func DrawDetections[B tensor.Backend](img image.Image, dets *tensor.Tensor[float32, B], thresh float32) (draw.Image, error) {
	return drawDetections(img, "", dets, thresh, false)
}

// DrawLabeledDetections is DrawDetections plus a "<className>: <score>"
// caption 15 pixels below each box's top-left corner.
func DrawLabeledDetections[B tensor.Backend](img image.Image, className string, dets *tensor.Tensor[float32, B], thresh float32) (draw.Image, error) {
	return drawDetections(img, className, dets, thresh, true)
}

func drawDetections[B tensor.Backend](img image.Image, className string, dets *tensor.Tensor[float32, B], thresh float32, labels bool) (draw.Image, error) {
	shape := dets.Shape()
	if len(shape) != 2 || shape[1] < 5 {
		return nil, fmt.Errorf("%w: detections must be [N, K>=5], got %v", ErrShape, shape)
	}

	dst := drawable(img)
	rows, cols := shape[0], shape[1]
	data := dets.Data()
	for i := 0; i < min(MaxDetections, rows); i++ {
		row := data[i*cols : (i+1)*cols]
		score := row[cols-1]
		if !(score > thresh) {
			continue
		}
		x1, y1 := round(row[0]), round(row[1])
		Rectangle(dst, x1, y1, round(row[2]), round(row[3]), DetectionColor)
		if labels {
			Label(dst, x1, y1+labelOffset, fmt.Sprintf("%s: %.3f", className, score), DetectionColor)
		}
	}
	return dst, nil
}

// DrawProposals draws the first NumProposals region proposals of batch 0.
//
// rois has shape [B, N, 5] with columns batch_index, x1, y1, x2, y2. N must
// be at least NumProposals; otherwise ErrTooFewProposals is returned and img
// is left untouched.
//
// thresh is accepted for call-site symmetry with DrawDetections but is not
// applied: proposals carry no score column.
func DrawProposals[B tensor.Backend](img image.Image, rois *tensor.Tensor[float32, B], thresh float32) (draw.Image, error) {
	_ = thresh

	shape := rois.Shape()
	if len(shape) != 3 || shape[2] != 5 {
		return nil, fmt.Errorf("%w: proposals must be [B, N, 5], got %v", ErrShape, shape)
	}
	if shape[1] < NumProposals {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrTooFewProposals, NumProposals, shape[1])
	}

	dst := drawable(img)
	data := rois.Data()
	for i := 0; i < NumProposals; i++ {
		row := data[i*5 : i*5+5]
		Rectangle(dst, round(row[1]), round(row[2]), round(row[3]), round(row[4]), ProposalColor)
	}
	return dst, nil
}
