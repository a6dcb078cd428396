// Package optim implements the optimizers and learning-rate schedule used
// to train detectors.
//
// This package provides:
//   - ParamGroup: parameters sharing a learning rate and weight decay
//   - SGD: Stochastic Gradient Descent with momentum and weight decay
//   - Adam: Adaptive Moment Estimation
//   - AdjustLearningRate: step decay of every group's learning rate
//
// Example usage:
//
//	optimizer := optim.NewSGDWithGroups([]*optim.ParamGroup[B]{
//	    {Params: weights, LR: 0.001, WeightDecay: 0.0005},
//	    {Params: biases, LR: 0.002},
//	}, optim.SGDConfig{Momentum: 0.9}, backend)
//
//	for epoch := 1; epoch <= epochs; epoch++ {
//	    if epoch%decayStep == 0 {
//	        optim.AdjustLearningRate(optimizer, optim.DefaultDecay)
//	    }
//	    // forward, loss, set gradients ...
//	    nn.ClipGradNorm(model, 10)
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"fmt"

	"github.com/born-ml/detkit/internal/nn"
	"github.com/born-ml/detkit/internal/tensor"
)

// DefaultDecay is the learning-rate multiplier applied at each decay step.
const DefaultDecay = 0.1

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to every trainable parameter that has a
	// gradient (see nn.Parameter.Grad).
	Step()

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the learning rate of the first parameter group.
	GetLR() float32
}

// ParamGroup is a set of parameters sharing one learning rate and weight
// decay. LR is mutated in place by AdjustLearningRate.
type ParamGroup[B tensor.Backend] struct {
	Params      []*nn.Parameter[B]
	LR          float32
	WeightDecay float32
}

// Grouped is implemented by optimizers that expose their parameter groups.
type Grouped[B tensor.Backend] interface {
	ParamGroups() []*ParamGroup[B]
}

// AdjustLearningRate multiplies the learning rate of every group of opt by
// decay, in place.
//
// Applying decays d1 then d2 leaves each group at lr*d1*d2.
func AdjustLearningRate[B tensor.Backend](opt Grouped[B], decay float32) {
	for _, g := range opt.ParamGroups() {
		g.LR *= decay
	}
}

// groups holds the parameter groups shared by all optimizers.
type groups[B tensor.Backend] struct {
	list []*ParamGroup[B]
}

// newGroups copies the group structs so the optimizer owns its LR fields.
// A group with zero LR inherits defaultLR.
func newGroups[B tensor.Backend](in []*ParamGroup[B], defaultLR float32) groups[B] {
	list := make([]*ParamGroup[B], len(in))
	for i, g := range in {
		cp := *g
		if cp.LR == 0 {
			cp.LR = defaultLR
		}
		list[i] = &cp
	}
	return groups[B]{list: list}
}

// ParamGroups returns the optimizer's parameter groups. Mutating a group's
// LR changes the rate used by the next Step.
func (g *groups[B]) ParamGroups() []*ParamGroup[B] {
	return g.list
}

// GetLR returns the learning rate of the first group.
func (g *groups[B]) GetLR() float32 {
	if len(g.list) == 0 {
		return 0
	}
	return g.list[0].LR
}

// SetLR sets the learning rate of every group.
func (g *groups[B]) SetLR(lr float32) {
	for _, group := range g.list {
		group.LR = lr
	}
}

// GroupLRs returns the learning rate of every group in order.
func (g *groups[B]) GroupLRs() []float32 {
	lrs := make([]float32, len(g.list))
	for i, group := range g.list {
		lrs[i] = group.LR
	}
	return lrs
}

// SetGroupLRs restores per-group learning rates.
func (g *groups[B]) SetGroupLRs(lrs []float32) error {
	if len(lrs) != len(g.list) {
		return fmt.Errorf("got %d learning rates for %d parameter groups", len(lrs), len(g.list))
	}
	for i, lr := range lrs {
		g.list[i].LR = lr
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (g *groups[B]) ZeroGrad() {
	for _, group := range g.list {
		for _, p := range group.Params {
			p.ZeroGrad()
		}
	}
}

// each calls fn for every trainable parameter that has a gradient.
func (g *groups[B]) each(fn func(gi, pi int, group *ParamGroup[B], p *nn.Parameter[B])) {
	for gi, group := range g.list {
		for pi, p := range group.Params {
			if !p.RequiresGrad() || p.Grad() == nil {
				continue
			}
			fn(gi, pi, group, p)
		}
	}
}

// bufferKey names an optimizer buffer in the state dict.
func bufferKey(buffer string, group, index int) string {
	return fmt.Sprintf("%s.%d.%d", buffer, group, index)
}

// loadBuffers restores one per-parameter buffer family from stateDict.
func loadBuffers[B tensor.Backend](
	g *groups[B],
	stateDict map[string]*tensor.RawTensor,
	buffer string,
	backend B,
) (map[*nn.Parameter[B]]*tensor.Tensor[float32, B], error) {
	out := make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	for gi, group := range g.list {
		for pi, p := range group.Params {
			raw, ok := stateDict[bufferKey(buffer, gi, pi)]
			if !ok {
				continue
			}
			if raw.DType() != tensor.Float32 || !raw.Shape().Equal(p.Tensor().Shape()) {
				return nil, fmt.Errorf("%s shape mismatch for group %d parameter %d: expected float32%v, got %s%v",
					buffer, gi, pi, p.Tensor().Shape(), raw.DType(), raw.Shape())
			}
			out[p] = tensor.New[float32, B](raw.Clone(), backend)
		}
	}
	return out, nil
}

// saveBuffers exports one buffer family under "<buffer>.<group>.<index>".
func saveBuffers[B tensor.Backend](
	g *groups[B],
	stateDict map[string]*tensor.RawTensor,
	buffer string,
	buffers map[*nn.Parameter[B]]*tensor.Tensor[float32, B],
) {
	for gi, group := range g.list {
		for pi, p := range group.Params {
			if buf, ok := buffers[p]; ok {
				stateDict[bufferKey(buffer, gi, pi)] = buf.Raw()
			}
		}
	}
}
