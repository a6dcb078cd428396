package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRawZeroed(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	require.NoError(t, err)
	assert.Equal(t, 24, raw.ByteSize())
	for _, v := range raw.AsFloat32() {
		assert.Zero(t, v)
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	_, err := NewRaw(Shape{2, 0}, Float32, CPU)
	require.Error(t, err)

	_, err = NewRaw(Shape{1 << 62, 8}, Float32, CPU)
	require.Error(t, err)
}

func TestRawDTypeMismatchPanics(t *testing.T) {
	raw, err := NewRaw(Shape{2}, Float64, CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { raw.AsFloat32() })
}

func TestRawCloneIsDeep(t *testing.T) {
	raw, err := NewRaw(Shape{2}, Float32, CPU)
	require.NoError(t, err)
	raw.AsFloat32()[0] = 1

	clone := raw.Clone()
	clone.AsFloat32()[0] = 5
	assert.Equal(t, float32(1), raw.AsFloat32()[0])
}

func TestRawCopyFrom(t *testing.T) {
	dst, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	src, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	copy(src.AsFloat32(), []float32{1, 2, 3, 4})

	require.NoError(t, dst.CopyFrom(src))
	assert.Equal(t, []float32{1, 2, 3, 4}, dst.AsFloat32())

	wrongShape, _ := NewRaw(Shape{4}, Float32, CPU)
	require.Error(t, dst.CopyFrom(wrongShape))

	wrongType, _ := NewRaw(Shape{2, 2}, Float64, CPU)
	require.Error(t, dst.CopyFrom(wrongType))
}

func TestNewRawFromBytes(t *testing.T) {
	src, _ := NewRaw(Shape{3}, Int32, CPU)
	copy(src.AsInt32(), []int32{7, 8, 9})

	raw, err := NewRawFromBytes(Shape{3}, Int32, CPU, src.Data())
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 8, 9}, raw.AsInt32())

	_, err = NewRawFromBytes(Shape{4}, Int32, CPU, src.Data())
	require.Error(t, err)
}

func TestRawWithShapeSharesStorage(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3}, Float32, CPU)
	view, err := raw.WithShape(Shape{6})
	require.NoError(t, err)

	view.AsFloat32()[4] = 2
	assert.Equal(t, float32(2), raw.AsFloat32()[4])

	_, err = raw.WithShape(Shape{4})
	require.Error(t, err)
}
