// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers and training helpers of detkit.
//
// # Overview
//
//   - Module, Container, Walk: the module tree
//   - Linear, Conv2D, ReLU, Flatten, Sequential: building blocks
//   - NormalInit: N(0, std²) re-initialisation of conv and linear weights
//   - ClipGradNorm: global gradient-norm clipping
//   - SmoothL1Loss: box regression loss with inside/outside weights
//   - SaveNet/LoadNet: SafeTensors weight files
//   - Checkpoint: .dkcp training snapshots with optimizer state
//
// # Example
//
//	rng := rand.New(rand.NewPCG(seed, 0))
//	head := nn.NewSequential[*cpu.Backend](
//	    nn.NewLinear(rng, 4096, 84, backend),
//	)
//	nn.NormalInit(rng, nn.DefaultInitStd, nn.Module[*cpu.Backend](head))
//	if err := nn.SaveNet("head.safetensors", head); err != nil {
//	    log.Fatal(err)
//	}
package nn
