package nn

import (
	"github.com/born-ml/detkit/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are tensors that may receive gradients during training.
// They typically represent weights and biases of layers. A parameter whose
// RequiresGrad flag is false is frozen: optimizers and the gradient clipper
// leave it alone.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//	weight.SetRequiresGrad(false) // freeze
type Parameter[B tensor.Backend] struct {
	name         string                     // Parameter name (e.g., "weight", "bias")
	tensor       *tensor.Tensor[float32, B] // The parameter tensor
	grad         *tensor.Tensor[float32, B] // Gradient tensor, nil until set
	requiresGrad bool
}

// NewParameter creates a new trainable parameter.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "weight")
//   - tensor: The initialized parameter tensor
//
// Returns a new Parameter with RequiresGrad set.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:         name,
		tensor:       t,
		requiresGrad: true,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been set yet.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// RequiresGrad reports whether the parameter is trainable.
func (p *Parameter[B]) RequiresGrad() bool {
	return p.requiresGrad
}

// SetRequiresGrad freezes (false) or unfreezes (true) the parameter.
func (p *Parameter[B]) SetRequiresGrad(requiresGrad bool) {
	p.requiresGrad = requiresGrad
}
