package optim

import (
	"github.com/born-ml/detkit/internal/nn"
	"github.com/born-ml/detkit/internal/tensor"
)

const momentumBuffer = "momentum_buffer"

// SGD implements Stochastic Gradient Descent with optional momentum and L2
// weight decay, applied per parameter group.
//
// Update rule:
//
//	d = gradient + weight_decay * param
//	velocity = momentum * velocity + d   (velocity = d on the first step)
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.001,
//	    Momentum: 0.9,
//	}, backend)
//
//	optimizer.Step()
//	optimizer.ZeroGrad()
type SGD[B tensor.Backend] struct {
	groups[B]
	momentum   float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend    B
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR          float32 // Learning rate (default: 0.01)
	Momentum    float32 // Momentum factor (default: 0.0, range: [0, 1))
	WeightDecay float32 // L2 penalty for NewSGD's single group (default: 0)
}

// NewSGD creates an SGD optimizer over a single parameter group.
//
// Example:
//
//	sgd := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}, backend)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return NewSGDWithGroups([]*ParamGroup[B]{{
		Params:      params,
		LR:          config.LR,
		WeightDecay: config.WeightDecay,
	}}, config, backend)
}

// NewSGDWithGroups creates an SGD optimizer over several parameter groups.
//
// Groups with a zero LR use config.LR. Each group's WeightDecay is used as
// given; config.WeightDecay is ignored.
func NewSGDWithGroups[B tensor.Backend](paramGroups []*ParamGroup[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		groups:     newGroups(paramGroups, config.LR),
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:    backend,
	}
}

// Name returns "SGD".
func (s *SGD[B]) Name() string {
	return "SGD"
}

// Step performs a single optimization step.
//
// Frozen parameters and parameters without a gradient are skipped.
func (s *SGD[B]) Step() {
	s.each(func(_, _ int, group *ParamGroup[B], param *nn.Parameter[B]) {
		d := param.Grad()
		if group.WeightDecay != 0 {
			d = d.Add(param.Tensor().MulScalar(float64(group.WeightDecay)))
		}

		if s.momentum != 0 {
			velocity, ok := s.velocities[param]
			if !ok {
				velocity = d.Clone()
				s.velocities[param] = velocity
			} else {
				copy(velocity.Data(), velocity.MulScalar(float64(s.momentum)).Add(d).Data())
			}
			d = velocity
		}

		updated := param.Tensor().Sub(d.MulScalar(float64(group.LR)))
		copy(param.Tensor().Data(), updated.Data())
	})
}

// StateDict exports velocity buffers as "momentum_buffer.<group>.<index>".
// Parameters that have not been stepped yet have no entry.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	saveBuffers(&s.groups, stateDict, momentumBuffer, s.velocities)
	return stateDict
}

// LoadStateDict restores velocity buffers, replacing the current ones.
//
// Returns an error if a buffer's shape doesn't match its parameter.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	velocities, err := loadBuffers(&s.groups, stateDict, momentumBuffer, s.backend)
	if err != nil {
		return err
	}
	s.velocities = velocities
	return nil
}
