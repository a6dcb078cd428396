// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers and learning-rate decay for detkit.
package optim

import (
	"github.com/born-ml/detkit/internal/nn"
	"github.com/born-ml/detkit/internal/optim"
	"github.com/born-ml/detkit/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// ParamGroup is a set of parameters sharing a learning rate and weight decay.
type ParamGroup[B tensor.Backend] = optim.ParamGroup[B]

// Grouped is implemented by optimizers with parameter groups.
type Grouped[B tensor.Backend] = optim.Grouped[B]

// DefaultDecay is the default learning-rate decay factor.
const DefaultDecay = optim.DefaultDecay

// AdjustLearningRate multiplies every group's learning rate by decay.
//
// Example:
//
//	if epoch%lrDecayStep == 0 {
//	    optim.AdjustLearningRate(optimizer, optim.DefaultDecay)
//	}
func AdjustLearningRate[B tensor.Backend](opt Grouped[B], decay float32) {
	optim.AdjustLearningRate(opt, decay)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(
//	    model.Parameters(),
//	    optim.SGDConfig{
//	        LR:       0.001,
//	        Momentum: 0.9,
//	    },
//	    backend,
//	)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(params, config, backend)
}

// NewSGDWithGroups creates an SGD optimizer with several parameter groups.
func NewSGDWithGroups[B tensor.Backend](groups []*ParamGroup[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGDWithGroups(groups, config, backend)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(params, config, backend)
}

// NewAdamWithGroups creates an Adam optimizer with several parameter groups.
func NewAdamWithGroups[B tensor.Backend](groups []*ParamGroup[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdamWithGroups(groups, config, backend)
}
