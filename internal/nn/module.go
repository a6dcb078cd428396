// Package nn implements the layers and training utilities of detkit.
//
// This package provides:
//   - Module, Container and Walk: the module tree and its traversal
//   - Parameter: trainable tensors with gradient and freeze state
//   - Linear, Conv2D, ReLU, Flatten, Sequential: building blocks
//   - NormalInit, Xavier, Normal: weight initialisation
//   - ClipGradNorm: global gradient-norm clipping
//   - SmoothL1Loss: the box-regression loss of two-stage detectors
//   - SaveNet/LoadNet and Checkpoint: weight and training-state persistence
package nn

import (
	"fmt"

	"github.com/born-ml/detkit/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build larger networks:
//
//	model := nn.NewSequential[Backend](
//	    nn.NewLinear(rng, 784, 128, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(rng, 128, 10, backend),
//	)
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all parameters of this module and its children,
	// frozen ones included.
	Parameters() []*Parameter[B]

	// StateDict maps parameter names to raw tensors. The tensors alias
	// parameter storage: writing into them updates the module.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies matching entries into the module's parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Container is a Module that owns submodules.
type Container[B tensor.Backend] interface {
	Module[B]
	Children() []Module[B]
}

// Walk calls fn for m and then, depth first, for every descendant of m.
func Walk[B tensor.Backend](m Module[B], fn func(Module[B])) {
	fn(m)
	if c, ok := m.(Container[B]); ok {
		for _, child := range c.Children() {
			Walk(child, fn)
		}
	}
}

// loadParam copies stateDict[key] into p after checking shape and dtype.
func loadParam[B tensor.Backend](stateDict map[string]*tensor.RawTensor, key string, p *Parameter[B]) error {
	raw, ok := stateDict[key]
	if !ok {
		return fmt.Errorf("missing %s in state dict", key)
	}
	if err := p.Tensor().Raw().CopyFrom(raw); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
