// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Element-wise operations broadcast NumPy-style, convolutions use im2col,
// and float matrix products go through gonum's BLAS.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
package cpu

import (
	internalcpu "github.com/born-ml/detkit/internal/backend/cpu"
	"github.com/born-ml/detkit/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}

// NewSerial creates a CPU backend that never spawns goroutines, for
// reproducible profiling and for callers that parallelise themselves.
func NewSerial() *Backend {
	return internalcpu.NewSerial()
}
