package serialization

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/detkit/internal/tensor"
)

func TestCheckpointFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faster_rcnn_1_3_100.dkcp")
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	state := map[string]*tensor.RawTensor{
		"0.weight":                      newFloat32(t, tensor.Shape{2, 2}, 1, 2, 3, 4),
		"optimizer.momentum_buffer.0.0": newFloat32(t, tensor.Shape{2, 2}, 0.5, 0.5, 0.5, 0.5),
	}
	opts := WriteOptions{
		Checkpoint: &CheckpointMeta{
			Epoch:         3,
			Step:          100,
			Loss:          0.25,
			OptimizerType: "SGD",
			GroupLRs:      []float32{0.001, 0.002},
			TrainingMeta:  map[string]any{"session": float64(1), "class_agnostic": false},
		},
		Metadata:  map[string]string{"net": "vgg16"},
		CreatedAt: created,
		Optimizer: true,
	}
	require.NoError(t, WriteCheckpointFile(path, state, opts))

	r, err := OpenCheckpointFile(path)
	require.NoError(t, err)
	defer func() { assert.NoError(t, r.Close()) }()

	h := r.Header()
	assert.Equal(t, FormatVersion, h.FormatVersion)
	assert.True(t, created.Equal(h.CreatedAt))
	assert.Equal(t, "vgg16", h.Metadata["net"])
	require.NotNil(t, h.CheckpointMeta)
	assert.Equal(t, 3, h.CheckpointMeta.Epoch)
	assert.Equal(t, int64(100), h.CheckpointMeta.Step)
	assert.Equal(t, []float32{0.001, 0.002}, h.CheckpointMeta.GroupLRs)
	assert.Equal(t, float64(1), h.CheckpointMeta.TrainingMeta["session"])

	assert.Equal(t, FlagHasOptimizer|FlagHasMetadata, r.Flags())
	assert.Equal(t, []string{"0.weight", "optimizer.momentum_buffer.0.0"}, r.Names())
	assert.True(t, r.Has("0.weight"))
	assert.False(t, r.Has("1.weight"))

	w, err := r.ReadTensor("0.weight")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, w.AsFloat32())

	_, err = r.ReadTensor("1.weight")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestCheckpointFileDataAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.dkcp")
	require.NoError(t, WriteCheckpointFile(path, map[string]*tensor.RawTensor{
		"w": newFloat32(t, tensor.Shape{1}, 7),
	}, WriteOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "DKCP", string(data[:4]))
	assert.Zero(t, (len(data)-4)%HeaderAlignment)
}

func TestCheckpointFileCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.dkcp")
	require.NoError(t, WriteCheckpointFile(path, map[string]*tensor.RawTensor{
		"w": newFloat32(t, tensor.Shape{2}, 1, 2),
	}, WriteOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-1] ^= 0xFF
	flippedPath := filepath.Join(dir, "flipped.dkcp")
	require.NoError(t, os.WriteFile(flippedPath, flipped, 0o600))
	_, err = OpenCheckpointFile(flippedPath)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	badMagic := append([]byte(nil), data...)
	copy(badMagic, "XXXX")
	badMagicPath := filepath.Join(dir, "magic.dkcp")
	require.NoError(t, os.WriteFile(badMagicPath, badMagic, 0o600))
	_, err = OpenCheckpointFile(badMagicPath)
	assert.ErrorIs(t, err, ErrInvalidMagic)

	badVersion := append([]byte(nil), data...)
	badVersion[4] = 9
	badVersionPath := filepath.Join(dir, "version.dkcp")
	require.NoError(t, os.WriteFile(badVersionPath, badVersion, 0o600))
	_, err = OpenCheckpointFile(badVersionPath)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	shortPath := filepath.Join(dir, "short.dkcp")
	require.NoError(t, os.WriteFile(shortPath, data[:10], 0o600))
	_, err = OpenCheckpointFile(shortPath)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}
