package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/detkit/internal/tensor"
)

// Sequential chains modules, feeding each output into the next module.
//
// State dict keys are prefixed with the module index ("0.weight",
// "2.bias", ...), so nested Sequentials produce dotted paths such as
// "1.0.weight".
//
// Example:
//
//	head := nn.NewSequential[B](
//	    nn.NewFlatten[B](),
//	    nn.NewLinear(rng, 512*7*7, 4096, backend),
//	    nn.NewReLU[B](),
//	)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a Sequential from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward runs the modules in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, m := range s.modules {
		output = m.Forward(output)
	}
	return output
}

// Parameters returns the parameters of every module in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Children returns the contained modules.
func (s *Sequential[B]) Children() []Module[B] {
	return s.modules
}

// Add appends a module.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at index.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic(fmt.Sprintf("Sequential.Module: index %d out of range [0, %d)", index, len(s.modules)))
	}
	return s.modules[index]
}

// StateDict merges the children's state dicts under "<index>." prefixes.
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		for name, raw := range m.StateDict() {
			stateDict[fmt.Sprintf("%d.%s", i, name)] = raw
		}
	}
	return stateDict
}

// LoadStateDict routes "<index>."-prefixed entries to each child.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, m := range s.modules {
		prefix := fmt.Sprintf("%d.", i)
		sub := make(map[string]*tensor.RawTensor)
		for key, raw := range stateDict {
			if name, ok := strings.CutPrefix(key, prefix); ok {
				sub[name] = raw
			}
		}
		if err := m.LoadStateDict(sub); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}
