// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/detkit/internal/tensor"

// Backend defines the interface that all compute backends must implement.
//
// Implementations:
//   - backend/cpu: Pure Go, BLAS-backed matrix multiply
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
type Backend = tensor.Backend
