package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{1, 2}.Validate())
	require.Error(t, Shape{1, 0}.Validate())
	require.Error(t, Shape{-1}.Validate())

	// 2^62 * 8 wraps to 0 without the bound.
	require.Error(t, Shape{1 << 62, 8}.Validate())
	require.Error(t, Shape{MaxElements, 2}.Validate())
	require.NoError(t, Shape{MaxElements}.Validate())
}

func TestShapeComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestShapeNormalizeDim(t *testing.T) {
	s := Shape{2, 3, 4}
	d, ok := s.NormalizeDim(-1)
	assert.True(t, ok)
	assert.Equal(t, 2, d)

	_, ok = s.NormalizeDim(3)
	assert.False(t, ok)
	_, ok = s.NormalizeDim(-4)
	assert.False(t, ok)
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{"equal", Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{"column", Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"rank", Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"scalar", Shape{}, Shape{2, 2}, Shape{2, 2}, true, false},
		{"incompatible", Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, broadcast, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.broadcast, broadcast)
		})
	}
}
