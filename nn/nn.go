// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/detkit/internal/nn"
	"github.com/born-ml/detkit/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Container is a module with submodules.
type Container[B tensor.Backend] = nn.Container[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Walk visits m and every descendant, parents before children.
func Walk[B tensor.Backend](m Module[B], fn func(Module[B])) {
	nn.Walk(m, fn)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	layer := nn.NewLinear(rng, 4096, 21, backend)
func NewLinear[B tensor.Backend](rng *rand.Rand, inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(rng, inFeatures, outFeatures, backend)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	conv := nn.NewConv2D(rng, 512, 18, 1, 1, 1, 0, true, backend)  // RPN objectness scores
func NewConv2D[B tensor.Backend](
	rng *rand.Rand,
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(rng, inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Flatten reshapes [N, ...] inputs to [N, features].
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a new Flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Sequential chains modules.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential from modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Initialization

// DefaultInitStd is the standard deviation used for detection heads.
const DefaultInitStd = nn.DefaultInitStd

// NormalInit refills the weights of every Conv2D and Linear in models with
// N(0, std²) samples from rng. Biases are left untouched.
func NormalInit[B tensor.Backend](rng *rand.Rand, std float64, models ...Module[B]) {
	nn.NormalInit(rng, std, models...)
}

// Normal creates a tensor of N(mean, std²) samples.
func Normal[B tensor.Backend](rng *rand.Rand, mean, std float64, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Normal(rng, mean, std, shape, backend)
}

// Xavier creates a tensor with Glorot-uniform samples.
func Xavier[B tensor.Backend](rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(rng, fanIn, fanOut, shape, backend)
}

// Gradients and loss

// ClipGradNorm scales every trainable gradient of model by
// clipNorm / max(norm, clipNorm) and returns the pre-clip global norm.
// It panics when clipNorm is not positive.
func ClipGradNorm[B tensor.Backend](model Module[B], clipNorm float32) float32 {
	return nn.ClipGradNorm(model, clipNorm)
}

// SmoothL1Loss is the box regression loss.
type SmoothL1Loss[B tensor.Backend] = nn.SmoothL1Loss[B]

// SmoothL1Config configures SmoothL1Loss.
type SmoothL1Config = nn.SmoothL1Config

// NewSmoothL1Loss creates a Smooth-L1 loss.
//
// Example:
//
//	crit := nn.NewSmoothL1Loss(nn.SmoothL1Config{Sigma: 3, Dims: []int{1, 2, 3}}, backend)
//	loss := crit.ForwardWeighted(pred, targets, insideWeights, outsideWeights)
func NewSmoothL1Loss[B tensor.Backend](config SmoothL1Config, backend B) *SmoothL1Loss[B] {
	return nn.NewSmoothL1Loss(config, backend)
}
