// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor types for detkit.
//
// # Overview
//
// Tensors carry layer weights, gradients, detections and proposals. This
// package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting for element-wise operations
//   - Zero-copy views for reshapes
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/detkit/tensor"
//	    "github.com/born-ml/detkit/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    dets, err := tensor.FromSlice([]float32{
//	        10, 20, 110, 220, 0.97,
//	    }, tensor.Shape{1, 5}, backend)
//	}
//
// # Supported Data Types
//
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
package tensor
