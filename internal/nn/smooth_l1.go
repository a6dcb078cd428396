package nn

import (
	"fmt"
	"math"
	"slices"

	"github.com/born-ml/detkit/internal/tensor"
)

// SmoothL1Config configures a SmoothL1Loss.
type SmoothL1Config struct {
	// Sigma moves the quadratic/linear transition to |diff| = 1/Sigma².
	// Zero means 1.0.
	Sigma float64

	// Dims lists the dimensions summed before the final mean. They are
	// sorted in descending order and applied one at a time, each index
	// taken against the tensor left by the previous sums, so negative
	// indices and repeats refer to the shrinking rank. Nil means [1].
	Dims []int
}

// SmoothL1Loss is the Huber-style box regression loss of two-stage
// detectors.
//
// With diff = (pred - target) * inside and σ² = Sigma²:
//
//	loss = 0.5 * σ² * diff²      if |diff| < 1/σ²
//	loss = |diff| - 0.5/σ²       otherwise
//
// The per-element loss is multiplied by the outside weights, summed over
// Dims (highest dimension first) and averaged over what remains.
//
// Example:
//
//	crit := nn.NewSmoothL1Loss(nn.SmoothL1Config{Sigma: 3, Dims: []int{1, 2, 3}}, backend)
//	loss := crit.ForwardWeighted(rpnBboxPred, rpnBboxTargets, insideW, outsideW)
type SmoothL1Loss[B tensor.Backend] struct {
	sigma   float64
	dims    []int
	backend B
}

// NewSmoothL1Loss creates a Smooth-L1 loss.
func NewSmoothL1Loss[B tensor.Backend](config SmoothL1Config, backend B) *SmoothL1Loss[B] {
	if config.Sigma == 0 {
		config.Sigma = 1.0
	}
	if config.Dims == nil {
		config.Dims = []int{1}
	}
	return &SmoothL1Loss[B]{
		sigma:   config.Sigma,
		dims:    slices.Clone(config.Dims),
		backend: backend,
	}
}

// Sigma returns the transition parameter.
func (l *SmoothL1Loss[B]) Sigma() float64 {
	return l.sigma
}

// Dims returns the configured reduction dimensions.
func (l *SmoothL1Loss[B]) Dims() []int {
	return slices.Clone(l.dims)
}

// Forward computes the loss without inside or outside weights.
func (l *SmoothL1Loss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return l.ForwardWeighted(pred, target, nil, nil)
}

// ForwardWeighted computes the loss. inside and outside may be nil; when
// given they must have the same shape as pred.
//
// Returns a 0-D tensor.
func (l *SmoothL1Loss[B]) ForwardWeighted(pred, target, inside, outside *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	dims, _ := l.checkInputs(pred, target, inside, outside)
	sigma2 := l.sigma * l.sigma

	elem := tensor.Zeros[float32](pred.Shape(), l.backend)
	out := elem.Data()
	p, t := pred.Data(), target.Data()
	for i := range out {
		diff := float64(p[i] - t[i])
		if inside != nil {
			diff *= float64(inside.Data()[i])
		}
		absDiff := math.Abs(diff)
		var v float64
		if absDiff < 1/sigma2 {
			v = diff * diff * sigma2 / 2
		} else {
			v = absDiff - 0.5/sigma2
		}
		if outside != nil {
			v *= float64(outside.Data()[i])
		}
		out[i] = float32(v)
	}

	loss := elem
	for _, d := range dims {
		loss = loss.SumDim(d, false)
	}
	return loss.Mean()
}

// Backward returns dLoss/dPred for the same inputs as ForwardWeighted.
func (l *SmoothL1Loss[B]) Backward(pred, target, inside, outside *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	_, reduced := l.checkInputs(pred, target, inside, outside)
	sigma2 := l.sigma * l.sigma

	shape := pred.Shape()
	norm := 1 / float64(reduced.NumElements())

	grad := tensor.Zeros[float32](shape, l.backend)
	g := grad.Data()
	p, t := pred.Data(), target.Data()
	for i := range g {
		w := 1.0
		if inside != nil {
			w = float64(inside.Data()[i])
		}
		diff := float64(p[i]-t[i]) * w

		var d float64
		switch {
		case math.Abs(diff) < 1/sigma2:
			d = diff * sigma2
		case diff > 0:
			d = 1
		default:
			d = -1
		}
		d *= w
		if outside != nil {
			d *= float64(outside.Data()[i])
		}
		g[i] = float32(d * norm)
	}
	return grad
}

// checkInputs validates shapes and resolves the reduction dims in the order
// they are summed. It also returns the shape left after all sums.
func (l *SmoothL1Loss[B]) checkInputs(pred, target, inside, outside *tensor.Tensor[float32, B]) ([]int, tensor.Shape) {
	shape := pred.Shape()
	if !shape.Equal(target.Shape()) {
		panic(fmt.Sprintf("SmoothL1Loss: pred shape %v != target shape %v", shape, target.Shape()))
	}
	if inside != nil && !shape.Equal(inside.Shape()) {
		panic(fmt.Sprintf("SmoothL1Loss: inside weights shape %v != pred shape %v", inside.Shape(), shape))
	}
	if outside != nil && !shape.Equal(outside.Shape()) {
		panic(fmt.Sprintf("SmoothL1Loss: outside weights shape %v != pred shape %v", outside.Shape(), shape))
	}

	dims := slices.Clone(l.dims)
	slices.Sort(dims)
	slices.Reverse(dims)

	cur := shape.Clone()
	for i, dim := range dims {
		d, ok := cur.NormalizeDim(dim)
		if !ok {
			panic(fmt.Sprintf("SmoothL1Loss: dimension %d out of range for %dD input", dim, len(cur)))
		}
		dims[i] = d
		cur = slices.Delete(cur, d, d+1)
	}
	return dims, cur
}
