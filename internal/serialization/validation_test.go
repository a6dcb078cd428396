package serialization

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		want     error
	}{
		{
			name: "contiguous",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 100, Size: 200},
				{Name: "c", Offset: 300, Size: 150},
			},
			dataSize: 500,
		},
		{
			name: "overlap by one byte",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 99, Size: 100},
			},
			dataSize: 200,
			want:     ErrOffsetOverlap,
		},
		{
			name:     "past end",
			tensors:  []TensorMeta{{Name: "a", Offset: 50, Size: 100}},
			dataSize: 100,
			want:     ErrOutOfBounds,
		},
		{
			name:     "negative offset",
			tensors:  []TensorMeta{{Name: "a", Offset: -1, Size: 4}},
			dataSize: 100,
			want:     ErrNegativeOffset,
		},
		{
			name: "unsorted input",
			tensors: []TensorMeta{
				{Name: "b", Offset: 8, Size: 8},
				{Name: "a", Offset: 0, Size: 8},
			},
			dataSize: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestValidateTensorName(t *testing.T) {
	for _, name := range []string{"0.weight", "optimizer.momentum_buffer.0.1", "RCNN_base.conv1.bias", "frame..png", "...jpg"} {
		assert.NoError(t, ValidateTensorName(name), name)
	}
	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b", `a\b`, "a\x00b", strings.Repeat("x", MaxTensorNameLen+1)} {
		assert.ErrorIs(t, ValidateTensorName(name), ErrInvalidTensorName, "%q", name)
	}
}

func TestValidateHeaderSize(t *testing.T) {
	assert.NoError(t, ValidateHeaderSize(100, 200))
	assert.ErrorIs(t, ValidateHeaderSize(300, 200), ErrOutOfBounds)
	assert.ErrorIs(t, ValidateHeaderSize(MaxHeaderSize+1, -1), ErrHeaderTooLarge)
}

func TestValidateTensorSize(t *testing.T) {
	assert.NoError(t, ValidateTensorSize(TensorMeta{Name: "w", Shape: []int{2, 3}, Size: 24}, 4))
	assert.ErrorIs(t, ValidateTensorSize(TensorMeta{Name: "w", Shape: []int{2, 3}, Size: 20}, 4), ErrShapeMismatch)
	assert.ErrorIs(t, ValidateTensorSize(TensorMeta{Name: "w", Shape: []int{-2, 3}, Size: 24}, 4), ErrShapeMismatch)
	assert.ErrorIs(t, ValidateTensorSize(TensorMeta{Name: "w", Shape: []int{1 << 62, 8}, Size: 0}, 4), ErrShapeMismatch)
	assert.ErrorIs(t, ValidateTensorSize(TensorMeta{Name: "w", Shape: []int{1 << 61, 2}, Size: 0}, 8), ErrShapeMismatch)
	assert.NoError(t, ValidateTensorSize(TensorMeta{Name: "w", Shape: []int{0, 1 << 62}, Size: 0}, 4))
}

func TestChecksum(t *testing.T) {
	a := ComputeChecksum([]byte("weights"))
	b := ComputeChecksum([]byte("weights"))
	c := ComputeChecksum([]byte("weightz"))
	assert.NoError(t, ValidateChecksum(a, b))
	assert.ErrorIs(t, ValidateChecksum(a, c), ErrChecksumMismatch)
}
