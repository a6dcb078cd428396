package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/detkit/internal/nn"
	"github.com/born-ml/detkit/internal/tensor"
)

const (
	expAvgBuffer   = "exp_avg"
	expAvgSqBuffer = "exp_avg_sq"
	stepKey        = "step"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	g = gradient + weight_decay * param
//	m_t = beta1 * m_{t-1} + (1-beta1) * g              // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * g²             // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR: 0.0001,
//	}, backend)
type Adam[B tensor.Backend] struct {
	groups[B]
	beta1   float32
	beta2   float32
	eps     float32
	t       int                                             // Timestep for bias correction
	m       map[*nn.Parameter[B]]*tensor.Tensor[float32, B] // First moment estimates
	v       map[*nn.Parameter[B]]*tensor.Tensor[float32, B] // Second moment estimates
	backend B
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // L2 penalty for NewAdam's single group (default: 0)
}

// NewAdam creates an Adam optimizer over a single parameter group.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return NewAdamWithGroups([]*ParamGroup[B]{{
		Params:      params,
		LR:          config.LR,
		WeightDecay: config.WeightDecay,
	}}, config, backend)
}

// NewAdamWithGroups creates an Adam optimizer over several parameter groups.
// Groups with a zero LR use config.LR.
func NewAdamWithGroups[B tensor.Backend](paramGroups []*ParamGroup[B], config AdamConfig, backend B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam[B]{
		groups:  newGroups(paramGroups, config.LR),
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		m:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		v:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend: backend,
	}
}

// Name returns "Adam".
func (a *Adam[B]) Name() string {
	return "Adam"
}

// Step performs a single optimization step.
//
// Frozen parameters and parameters without a gradient are skipped.
func (a *Adam[B]) Step() {
	a.t++
	biasCorrection1 := 1.0 - float32(math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := 1.0 - float32(math.Pow(float64(a.beta2), float64(a.t)))

	a.each(func(_, _ int, group *ParamGroup[B], param *nn.Parameter[B]) {
		m, ok := a.m[param]
		if !ok {
			m = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
			a.v[param] = v
		}

		gradData := param.Grad().Data()
		mData := m.Data()
		vData := v.Data()
		paramData := param.Tensor().Data()

		for i := range paramData {
			g := gradData[i] + group.WeightDecay*paramData[i]
			mData[i] = a.beta1*mData[i] + (1.0-a.beta1)*g
			vData[i] = a.beta2*vData[i] + (1.0-a.beta2)*g*g

			mHat := mData[i] / biasCorrection1
			vHat := vData[i] / biasCorrection2
			paramData[i] -= group.LR * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	})
}

// Timestep returns the number of steps taken.
func (a *Adam[B]) Timestep() int {
	return a.t
}

// StateDict exports "exp_avg.<g>.<i>", "exp_avg_sq.<g>.<i>" and the scalar
// int64 "step".
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	saveBuffers(&a.groups, stateDict, expAvgBuffer, a.m)
	saveBuffers(&a.groups, stateDict, expAvgSqBuffer, a.v)

	step, err := tensor.NewRaw(tensor.Shape{}, tensor.Int64, a.backend.Device())
	if err != nil {
		panic(err)
	}
	step.AsInt64()[0] = int64(a.t)
	stateDict[stepKey] = step
	return stateDict
}

// LoadStateDict restores moments and the timestep.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	m, err := loadBuffers(&a.groups, stateDict, expAvgBuffer, a.backend)
	if err != nil {
		return err
	}
	v, err := loadBuffers(&a.groups, stateDict, expAvgSqBuffer, a.backend)
	if err != nil {
		return err
	}

	t := 0
	if step, ok := stateDict[stepKey]; ok {
		if step.DType() != tensor.Int64 || step.NumElements() != 1 {
			return fmt.Errorf("step must be a scalar int64, got %s%v", step.DType(), step.Shape())
		}
		t = int(step.AsInt64()[0])
	}

	a.m, a.v, a.t = m, v, t
	return nil
}
