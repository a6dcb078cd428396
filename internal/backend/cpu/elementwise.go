package cpu

import (
	"fmt"

	"github.com/born-ml/detkit/internal/tensor"
)

type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

type binaryKind int

const (
	opAdd binaryKind = iota
	opSub
	opMul
)

func (k binaryKind) String() string {
	switch k {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	default:
		return "binary"
	}
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opMul, a, b)
}

func (cpu *CPUBackend) binary(kind binaryKind, a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", kind, a.DType(), b.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", kind, err))
	}

	result := cpu.newResult(kind.String(), outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		binaryLoop(kind, result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Float64:
		binaryLoop(kind, result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		binaryLoop(kind, result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int64:
		binaryLoop(kind, result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", kind, a.DType()))
	}

	return result
}

func binaryLoop[T number](kind binaryKind, dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	op := binaryFunc[T](kind)

	if aShape.Equal(bShape) {
		for i := range dst {
			dst[i] = op(a[i], b[i])
		}
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	for i := range dst {
		ai := computeFlatIndex(i, outStrides, aStrides)
		bi := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = op(a[ai], b[bi])
	}
}

func binaryFunc[T number](kind binaryKind) func(x, y T) T {
	switch kind {
	case opAdd:
		return func(x, y T) T { return x + y }
	case opSub:
		return func(x, y T) T { return x - y }
	case opMul:
		return func(x, y T) T { return x * y }
	default:
		panic(fmt.Sprintf("unknown binary op %d", kind))
	}
}

// MulScalar multiplies every element by scalar.
// For integer tensors the scalar is truncated toward zero first.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := cpu.newResult("mulscalar", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		scaleLoop(result.AsFloat32(), x.AsFloat32(), float32(scalar))
	case tensor.Float64:
		scaleLoop(result.AsFloat64(), x.AsFloat64(), scalar)
	case tensor.Int32:
		scaleLoop(result.AsInt32(), x.AsInt32(), int32(scalar))
	case tensor.Int64:
		scaleLoop(result.AsInt64(), x.AsInt64(), int64(scalar))
	default:
		panic(fmt.Sprintf("mulscalar: unsupported dtype %s", x.DType()))
	}

	return result
}

func scaleLoop[T number](dst, src []T, s T) {
	for i, v := range src {
		dst[i] = v * s
	}
}

// Abs computes |x| element-wise.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("abs", x, func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	})
}

// ReLU computes max(x, 0) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	})
}

func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result := cpu.newResult(op, x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		unaryLoop(result.AsFloat32(), x.AsFloat32(), f)
	case tensor.Float64:
		unaryLoop(result.AsFloat64(), x.AsFloat64(), f)
	case tensor.Int32:
		unaryLoop(result.AsInt32(), x.AsInt32(), f)
	case tensor.Int64:
		unaryLoop(result.AsInt64(), x.AsInt64(), f)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}

	return result
}

func unaryLoop[T number](dst, src []T, f func(float64) float64) {
	for i, v := range src {
		dst[i] = T(f(float64(v)))
	}
}

// computeBroadcastStridesForShape computes strides for broadcasting a shape to outShape.
// Returns strides where dimensions of size 1 have stride 0 (for broadcasting).
func computeBroadcastStridesForShape(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	inDim := len(inShape)
	offset := outDim - inDim
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0 // padded dimension
		case inShape[inIdx] == 1:
			strides[i] = 0 // broadcast dimension
		default:
			strides[i] = origStrides[inIdx]
		}
	}

	return strides
}

// computeFlatIndex computes the flat index in the source array for a given output index.
func computeFlatIndex(outIdx int, outStrides, inStrides []int) int {
	flatIdx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flatIdx += coord * inStrides[i]
	}
	return flatIdx
}
