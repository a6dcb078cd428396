package nn

import (
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/detkit/internal/backend/cpu"
	"github.com/born-ml/detkit/internal/serialization"
	"github.com/born-ml/detkit/internal/tensor"
)

func rand2() *rand.Rand {
	return rand.New(rand.NewPCG(1234, 5678))
}

// stubOptimizer records what a checkpoint hands it.
type stubOptimizer struct {
	buffers map[string]*tensor.RawTensor
	lrs     []float32
	loaded  map[string]*tensor.RawTensor
}

func (s *stubOptimizer) Name() string                            { return "Stub" }
func (s *stubOptimizer) StateDict() map[string]*tensor.RawTensor { return s.buffers }
func (s *stubOptimizer) GroupLRs() []float32                     { return s.lrs }

func (s *stubOptimizer) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	s.loaded = sd
	return nil
}

func (s *stubOptimizer) SetGroupLRs(lrs []float32) error {
	if len(lrs) != len(s.lrs) {
		return errors.New("group count mismatch")
	}
	s.lrs = lrs
	return nil
}

func TestCheckpointRoundTrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "faster_rcnn_1_2_50.dkcp")
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	model := smallNet(newRNG(), backend)
	buf := tensor.Full[float32](tensor.Shape{2}, 0.25, backend)
	opt := &stubOptimizer{
		buffers: map[string]*tensor.RawTensor{"momentum_buffer.0.1": buf.Raw()},
		lrs:     []float32{0.0001, 0.0002},
	}

	ckpt := &Checkpoint[Backend]{
		Model:     model,
		Optimizer: opt,
		Epoch:     2,
		Step:      50,
		Loss:      0.75,
		Metadata:  map[string]any{"session": 1, "pooling_mode": "align", "class_agnostic": false},
		CreatedAt: created,
	}
	require.NoError(t, ckpt.Save(path))

	restored := smallNet(rand2(), backend)
	restoredOpt := &stubOptimizer{lrs: []float32{0.001, 0.002}}
	loaded, err := LoadCheckpoint(path, backend, Module[Backend](restored), restoredOpt)
	require.NoError(t, err)

	assert.Equal(t, 2, loaded.Epoch)
	assert.Equal(t, int64(50), loaded.Step)
	assert.Equal(t, 0.75, loaded.Loss)
	assert.True(t, created.Equal(loaded.CreatedAt))
	assert.Equal(t, "align", loaded.Metadata["pooling_mode"])
	assert.Equal(t, float64(1), loaded.Metadata["session"])

	for k, raw := range model.StateDict() {
		assert.Equal(t, raw.AsFloat32(), restored.StateDict()[k].AsFloat32(), k)
	}
	assert.Equal(t, []float32{0.0001, 0.0002}, restoredOpt.lrs)
	require.Contains(t, restoredOpt.loaded, "momentum_buffer.0.1")
	assert.Equal(t, []float32{0.25, 0.25}, restoredOpt.loaded["momentum_buffer.0.1"].AsFloat32())
	assert.Len(t, restoredOpt.loaded, 1)
}

func TestCheckpointWithoutOptimizer(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "weights.dkcp")

	model := smallNet(newRNG(), backend)
	require.NoError(t, SaveCheckpoint[Backend](path, model, nil, 7))

	restored := smallNet(rand2(), backend)
	loaded, err := LoadCheckpoint(path, backend, Module[Backend](restored), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Epoch)
	assert.Nil(t, loaded.Optimizer)

	// Optimizer given but none stored: learning rates stay as they were.
	opt := &stubOptimizer{lrs: []float32{0.5}}
	_, err = LoadCheckpoint(path, backend, Module[Backend](restored), opt)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, opt.lrs)
	assert.Empty(t, opt.loaded)
}

func TestLoadCheckpointErrors(t *testing.T) {
	backend := cpu.New()
	dir := t.TempDir()
	path := filepath.Join(dir, "small.dkcp")

	small := NewSequential[Backend](NewLinear(newRNG(), 2, 2, backend))
	require.NoError(t, SaveCheckpoint[Backend](path, small, nil, 1))

	big := NewSequential[Backend](NewLinear(newRNG(), 2, 2, backend), NewLinear(newRNG(), 2, 2, backend))
	_, err := LoadCheckpoint(path, backend, Module[Backend](big), nil)
	assert.ErrorIs(t, err, serialization.ErrTensorNotFound)

	opt := &stubOptimizer{lrs: []float32{1}}
	withOpt := filepath.Join(dir, "opt.dkcp")
	require.NoError(t, SaveCheckpoint[Backend](withOpt, small, &stubOptimizer{lrs: []float32{1, 2}}, 1))
	_, err = LoadCheckpoint(withOpt, backend, Module[Backend](small), opt)
	assert.ErrorContains(t, err, "failed to restore learning rates")

	_, err = LoadCheckpoint(filepath.Join(dir, "none.dkcp"), backend, Module[Backend](small), nil)
	assert.Error(t, err)
}
