// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/detkit/internal/nn"
	"github.com/born-ml/detkit/internal/tensor"
)

// SaveNet writes the model's state dict to a SafeTensors file.
func SaveNet[B tensor.Backend](path string, model Module[B]) error {
	return nn.SaveNet(path, model)
}

// SaveNetWithMetadata is SaveNet with string metadata in the file header.
func SaveNetWithMetadata[B tensor.Backend](path string, model Module[B], metadata map[string]string) error {
	return nn.SaveNetWithMetadata(path, model, metadata)
}

// LoadNet loads a SafeTensors file into model in place. Every key of the
// model must be present in the file; extra file keys are ignored.
func LoadNet[B tensor.Backend](path string, model Module[B]) error {
	return nn.LoadNet(path, model)
}

// OptimizerState is implemented by optimizers that can be checkpointed.
type OptimizerState = nn.OptimizerState

// Checkpoint is a training snapshot: model, optimizer and counters.
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// LoadCheckpoint restores model, optimizer (may be nil) and counters from a
// .dkcp file.
//
// Example:
//
//	ckpt, err := nn.LoadCheckpoint("faster_rcnn_1_6_10021.dkcp", backend, model, optimizer)
//	startEpoch := ckpt.Epoch + 1
func LoadCheckpoint[B tensor.Backend](path string, backend B, model Module[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, backend, model, optimizer)
}

// SaveCheckpoint writes model and optimizer state for epoch.
func SaveCheckpoint[B tensor.Backend](path string, model Module[B], optimizer OptimizerState, epoch int) error {
	return nn.SaveCheckpoint(path, model, optimizer, epoch)
}
