package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/detkit/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape ...int) *tensor.Tensor[float32, *CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, tensor.Shape(shape), New())
	require.NoError(t, err)
	return x
}

func TestFromSliceAndAt(t *testing.T) {
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, float32(6), x.At(1, 2))

	x.Set(9, 0, 1)
	assert.Equal(t, float32(9), x.Data()[1])

	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })

	_, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, New())
	require.Error(t, err)
}

func TestAddBroadcast(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := fromSlice(t, []float32{10, 20, 30}, 3)

	c := a.Add(b)
	assert.Equal(t, tensor.Shape{2, 3}, c.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, c.Data())

	// Inputs are never modified.
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, a.Data())
}

func TestSubMulColumnBroadcast(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, 2, 2)
	col := fromSlice(t, []float32{1, 2}, 2, 1)

	assert.Equal(t, []float32{0, 1, 1, 2}, a.Sub(col).Data())
	assert.Equal(t, []float32{1, 2, 6, 8}, a.Mul(col).Data())
}

func TestBinaryShapeMismatchPanics(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3}, 3)
	b := fromSlice(t, []float32{1, 2}, 2)
	assert.PanicsWithValue(t,
		"sub: shapes not compatible for broadcasting: [3] vs [2] (dimension 0: 3 vs 2)",
		func() { a.Sub(b) })
}

func TestUnaryOps(t *testing.T) {
	x := fromSlice(t, []float32{-2, -0.5, 0, 1.5}, 4)
	assert.Equal(t, []float32{2, 0.5, 0, 1.5}, x.Abs().Data())
	assert.Equal(t, []float32{0, 0, 0, 1.5}, x.ReLU().Data())
	assert.Equal(t, []float32{-4, -1, 0, 3}, x.MulScalar(2).Data())
}

func TestSumDim(t *testing.T) {
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	rows := x.SumDim(1, false)
	assert.Equal(t, tensor.Shape{2}, rows.Shape())
	assert.Equal(t, []float32{6, 15}, rows.Data())

	cols := x.SumDim(0, true)
	assert.Equal(t, tensor.Shape{1, 3}, cols.Shape())
	assert.Equal(t, []float32{5, 7, 9}, cols.Data())

	last := x.SumDim(-1, false)
	assert.Equal(t, []float32{6, 15}, last.Data())

	assert.Panics(t, func() { x.SumDim(2, false) })
}

func TestSumAndMean(t *testing.T) {
	x := fromSlice(t, []float32{1, 2, 3, 4}, 2, 2)
	assert.Equal(t, float32(10), x.Sum().Item())
	assert.Equal(t, float32(2.5), x.Mean().Item())
	assert.Equal(t, tensor.Shape{}, x.Sum().Shape())
}

func TestMatMulAndTranspose(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := fromSlice(t, []float32{1, 0, 0, 1, 1, 1}, 3, 2)

	c := a.MatMul(b)
	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float32{4, 5, 10, 11}, c.Data())

	at := a.Transpose()
	assert.Equal(t, tensor.Shape{3, 2}, at.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, at.Data())

	assert.Panics(t, func() { a.MatMul(a) })
}

func TestReshapeSharesData(t *testing.T) {
	x := fromSlice(t, []float32{1, 2, 3, 4}, 4)
	y := x.Reshape(2, 2)
	y.Set(7, 1, 1)
	assert.Equal(t, float32(7), x.Data()[3])
	assert.Panics(t, func() { x.Reshape(3) })
}

func TestConv2D(t *testing.T) {
	// 1x1x3x3 input, 1x1x2x2 kernel of ones: each output is a 2x2 window sum.
	input := fromSlice(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, 1, 1, 3, 3)
	kernel := fromSlice(t, []float32{1, 1, 1, 1}, 1, 1, 2, 2)

	out := input.Conv2D(kernel, 1, 0)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{12, 16, 24, 28}, out.Data())

	padded := input.Conv2D(kernel, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 4, 4}, padded.Shape())
	assert.Equal(t, float32(1), padded.At(0, 0, 0, 0))
	assert.Equal(t, float32(9), padded.At(0, 0, 3, 3))
}

func TestConv2DMultiChannel(t *testing.T) {
	// Two input channels, two filters: filter 0 picks channel 0, filter 1 sums both.
	input := fromSlice(t, []float32{1, 2, 3, 4, 10, 20, 30, 40}, 1, 2, 2, 2)
	kernel := fromSlice(t, []float32{1, 0, 1, 1}, 2, 2, 1, 1)

	out := input.Conv2D(kernel, 1, 0)
	assert.Equal(t, tensor.Shape{1, 2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 11, 22, 33, 44}, out.Data())
}

func TestConv2DSerialMatchesParallel(t *testing.T) {
	in := make([]float32, 2*3*6*6)
	for i := range in {
		in[i] = float32(i%7) - 3
	}
	k := make([]float32, 8*3*3*3)
	for i := range k {
		k[i] = float32(i%5) * 0.25
	}

	run := func(b *CPUBackend) []float32 {
		x, err := tensor.FromSlice(in, tensor.Shape{2, 3, 6, 6}, b)
		require.NoError(t, err)
		w, err := tensor.FromSlice(k, tensor.Shape{8, 3, 3, 3}, b)
		require.NoError(t, err)
		return x.Conv2D(w, 1, 1).Data()
	}

	assert.Equal(t, run(NewSerial()), run(New()))
}
