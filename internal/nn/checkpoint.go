package nn

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/born-ml/detkit/internal/serialization"
	"github.com/born-ml/detkit/internal/tensor"
)

const optimizerPrefix = "optimizer."

// OptimizerState represents an optimizer that can save/load its state.
//
// This interface is used by checkpoints to serialize optimizer state
// without creating import cycles. Optimizers from the optim package
// implement this interface.
type OptimizerState interface {
	// Name identifies the optimizer type ("SGD", "Adam").
	Name() string

	// StateDict returns the optimizer buffers for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads optimizer buffers.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error

	// GroupLRs returns the learning rate of every parameter group.
	GroupLRs() []float32

	// SetGroupLRs restores the learning rates returned by GroupLRs.
	SetGroupLRs(lrs []float32) error
}

// Checkpoint represents a complete training state snapshot.
//
// A checkpoint includes:
//   - Model parameters (weights and biases)
//   - Optimizer buffers and per-group learning rates
//   - Training counters (epoch, step, loss)
//   - Custom metadata (session id, pooling mode, ...)
//
// Example:
//
//	checkpoint := &nn.Checkpoint[*cpu.CPUBackend]{
//	    Model:     model,
//	    Optimizer: optimizer,
//	    Epoch:     6,
//	    Step:      10021,
//	    Metadata:  map[string]any{"session": 1, "pooling_mode": "align"},
//	}
//	err := checkpoint.Save("faster_rcnn_1_6_10021.dkcp")
//
// To resume training:
//
//	checkpoint, err := nn.LoadCheckpoint("faster_rcnn_1_6_10021.dkcp", backend, model, optimizer)
//	startEpoch := checkpoint.Epoch + 1
type Checkpoint[B tensor.Backend] struct {
	Model     Module[B]      // The neural network model
	Optimizer OptimizerState // The optimizer, nil for inference-only snapshots
	Epoch     int            // Training epoch number
	Step      int64          // Training step number
	Loss      float64        // Loss value at this checkpoint
	Metadata  map[string]any // Additional training metadata
	CreatedAt time.Time      // When the checkpoint was created
}

// Save writes the checkpoint to a .dkcp file.
//
// Model tensors are stored under their state dict keys and optimizer
// buffers under "optimizer.<key>".
func (c *Checkpoint[B]) Save(path string) error {
	combined := make(map[string]*tensor.RawTensor)
	for name, raw := range c.Model.StateDict() {
		combined[name] = raw
	}

	meta := &serialization.CheckpointMeta{
		Epoch:        c.Epoch,
		Step:         c.Step,
		Loss:         c.Loss,
		TrainingMeta: c.Metadata,
	}
	if c.Optimizer != nil {
		for name, raw := range c.Optimizer.StateDict() {
			combined[optimizerPrefix+name] = raw
		}
		meta.OptimizerType = c.Optimizer.Name()
		meta.GroupLRs = c.Optimizer.GroupLRs()
	}

	err := serialization.WriteCheckpointFile(path, combined, serialization.WriteOptions{
		Checkpoint: meta,
		CreatedAt:  c.CreatedAt,
		Optimizer:  c.Optimizer != nil,
	})
	if err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint loads a checkpoint from a .dkcp file.
//
// This restores:
//   - Model parameters, in place, for every key of model.StateDict()
//   - Optimizer buffers and group learning rates (when optimizer is non-nil)
//   - Training counters and metadata
//
// The model and optimizer must be pre-constructed with the same
// architecture and parameter groups as when the checkpoint was saved.
//
// Parameters:
//   - path: File path to read checkpoint from
//   - backend: Backend the model runs on
//   - model: Pre-constructed model (will be loaded into)
//   - optimizer: Pre-constructed optimizer, or nil to skip optimizer state
func LoadCheckpoint[B tensor.Backend](
	path string,
	_ B,
	model Module[B],
	optimizer OptimizerState,
) (*Checkpoint[B], error) {
	reader, err := serialization.OpenCheckpointFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	header := reader.Header()
	if header.CheckpointMeta == nil {
		return nil, fmt.Errorf("%s is not a checkpoint", path)
	}
	meta := header.CheckpointMeta

	state := model.StateDict()
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := reader.ReadInto(k, state[k]); err != nil {
			return nil, fmt.Errorf("failed to load model state: %w", err)
		}
	}

	if optimizer != nil {
		optState := make(map[string]*tensor.RawTensor)
		for _, name := range reader.Names() {
			key, ok := strings.CutPrefix(name, optimizerPrefix)
			if !ok {
				continue
			}
			raw, err := reader.ReadTensor(name)
			if err != nil {
				return nil, fmt.Errorf("failed to read optimizer state: %w", err)
			}
			optState[key] = raw
		}
		if err := optimizer.LoadStateDict(optState); err != nil {
			return nil, fmt.Errorf("failed to load optimizer state: %w", err)
		}
		if len(meta.GroupLRs) > 0 {
			if err := optimizer.SetGroupLRs(meta.GroupLRs); err != nil {
				return nil, fmt.Errorf("failed to restore learning rates: %w", err)
			}
		}
	}

	return &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     meta.Epoch,
		Step:      meta.Step,
		Loss:      meta.Loss,
		Metadata:  meta.TrainingMeta,
		CreatedAt: header.CreatedAt,
	}, nil
}

// SaveCheckpoint is a convenience function to save a checkpoint.
//
// Example:
//
//	err := nn.SaveCheckpoint("checkpoint.dkcp", model, optimizer, epoch)
func SaveCheckpoint[B tensor.Backend](
	path string,
	model Module[B],
	optimizer OptimizerState,
	epoch int,
) error {
	checkpoint := &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     epoch,
		CreatedAt: time.Now().UTC(),
	}
	return checkpoint.Save(path)
}
