package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/detkit/internal/backend/cpu"
	"github.com/born-ml/detkit/internal/tensor"
)

func TestSmoothL1Examples(t *testing.T) {
	crit := NewSmoothL1Loss(SmoothL1Config{}, cpu.New())
	assert.Equal(t, 1.0, crit.Sigma())
	assert.Equal(t, []int{1}, crit.Dims())

	zero := fromSlice(t, []float32{0}, 1, 1)

	loss := crit.Forward(fromSlice(t, []float32{2}, 1, 1), zero)
	assert.Equal(t, tensor.Shape{}, loss.Shape())
	assert.InDelta(t, 1.5, loss.Item(), 1e-6)

	loss = crit.Forward(fromSlice(t, []float32{0.5}, 1, 1), zero)
	assert.InDelta(t, 0.125, loss.Item(), 1e-6)
}

func TestSmoothL1ZeroWhenEqual(t *testing.T) {
	crit := NewSmoothL1Loss(SmoothL1Config{Sigma: 3}, cpu.New())
	x := fromSlice(t, []float32{1, -2, 3, 4, 5, 6}, 2, 3)
	w := fromSlice(t, []float32{1, 2, 3, 1, 2, 3}, 2, 3)
	assert.Equal(t, float32(0), crit.ForwardWeighted(x, x.Clone(), w, w).Item())
}

func TestSmoothL1ContinuousAtTransition(t *testing.T) {
	for _, sigma := range []float64{1, 3} {
		crit := NewSmoothL1Loss(SmoothL1Config{Sigma: sigma}, cpu.New())
		edge := float32(1 / (sigma * sigma))
		zero := fromSlice(t, []float32{0}, 1, 1)

		below := crit.Forward(fromSlice(t, []float32{edge - 1e-4}, 1, 1), zero).Item()
		above := crit.Forward(fromSlice(t, []float32{edge + 1e-4}, 1, 1), zero).Item()
		assert.InDelta(t, below, above, 1e-3, "sigma=%v", sigma)
		assert.InDelta(t, 0.5/(sigma*sigma), above, 1e-3, "sigma=%v", sigma)
	}
}

func TestSmoothL1Growth(t *testing.T) {
	crit := NewSmoothL1Loss(SmoothL1Config{}, cpu.New())
	zero := fromSlice(t, []float32{0}, 1, 1)
	at := func(d float32) float32 {
		return crit.Forward(fromSlice(t, []float32{d}, 1, 1), zero).Item()
	}

	// Quadratic below the transition: doubling diff quadruples loss.
	assert.InDelta(t, 4*at(0.2), at(0.4), 1e-6)
	// Linear above: equal steps add equal amounts.
	assert.InDelta(t, at(3)-at(2), at(4)-at(3), 1e-6)
}

func TestSmoothL1Reduction(t *testing.T) {
	backend := cpu.New()
	// diffs of 2 everywhere: per element 1.5
	pred := tensor.Full[float32](tensor.Shape{2, 3, 4}, 2, backend)
	target := tensor.Zeros[float32](tensor.Shape{2, 3, 4}, backend)

	tests := []struct {
		dims []int
		want float32
	}{
		{[]int{1}, 1.5 * 3},
		{[]int{1, 2}, 1.5 * 12},
		{[]int{2, 1}, 1.5 * 12},
		{[]int{-1}, 1.5 * 4},
		{[]int{0, 1, 2}, 1.5 * 24},
		// Applied highest first against the shrinking rank: 2 on [2,3,4],
		// then -1 is dim 1 of [2,3].
		{[]int{2, -1}, 1.5 * 12},
		{[]int{-1, 2}, 1.5 * 12},
		// 1 on [2,3,4], then 1 on [2,4].
		{[]int{1, 1}, 1.5 * 12},
	}
	for _, tt := range tests {
		crit := NewSmoothL1Loss(SmoothL1Config{Dims: tt.dims}, backend)
		assert.InDelta(t, tt.want, crit.Forward(pred, target).Item(), 1e-5, "dims=%v", tt.dims)
	}

	bad := NewSmoothL1Loss(SmoothL1Config{Dims: []int{3}}, backend)
	assert.PanicsWithValue(t, "SmoothL1Loss: dimension 3 out of range for 3D input", func() {
		bad.Forward(pred, target)
	})

	// 1, 1 leave [2]; -2 no longer exists.
	bad = NewSmoothL1Loss(SmoothL1Config{Dims: []int{1, 1, -2}}, backend)
	assert.PanicsWithValue(t, "SmoothL1Loss: dimension -2 out of range for 1D input", func() {
		bad.Forward(pred, target)
	})
}

func TestSmoothL1Weights(t *testing.T) {
	crit := NewSmoothL1Loss(SmoothL1Config{}, cpu.New())
	pred := fromSlice(t, []float32{2, 2}, 1, 2)
	target := fromSlice(t, []float32{0, 0}, 1, 2)

	inside := fromSlice(t, []float32{1, 0}, 1, 2)
	assert.InDelta(t, 1.5, crit.ForwardWeighted(pred, target, inside, nil).Item(), 1e-6)

	outside := fromSlice(t, []float32{0.5, 2}, 1, 2)
	assert.InDelta(t, 0.75+3, crit.ForwardWeighted(pred, target, nil, outside).Item(), 1e-6)

	assert.Panics(t, func() {
		crit.ForwardWeighted(pred, target, fromSlice(t, []float32{1}, 1, 1), nil)
	})
	assert.Panics(t, func() { crit.Forward(pred, fromSlice(t, []float32{1}, 1, 1)) })
}

func TestSmoothL1BackwardMatchesFiniteDifference(t *testing.T) {
	backend := cpu.New()
	crit := NewSmoothL1Loss(SmoothL1Config{Sigma: 2, Dims: []int{1}}, backend)

	pred := fromSlice(t, []float32{0.1, -0.05, 1.5, -2, 0.2, 0.7}, 2, 3)
	target := fromSlice(t, []float32{0, 0, 0, 0, 0.1, 0}, 2, 3)
	inside := fromSlice(t, []float32{1, 1, 1, 0.5, 1, 1}, 2, 3)
	outside := fromSlice(t, []float32{1, 2, 1, 1, 0.5, 1}, 2, 3)

	grad := crit.Backward(pred, target, inside, outside)
	assert.Equal(t, pred.Shape(), grad.Shape())

	const h = 1e-3
	for i := range pred.Data() {
		orig := pred.Data()[i]
		pred.Data()[i] = orig + h
		up := crit.ForwardWeighted(pred, target, inside, outside).Item()
		pred.Data()[i] = orig - h
		down := crit.ForwardWeighted(pred, target, inside, outside).Item()
		pred.Data()[i] = orig

		numeric := (up - down) / (2 * h)
		assert.InDelta(t, numeric, grad.Data()[i], 2e-3, "element %d", i)
	}
}
