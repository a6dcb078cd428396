package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Operations panic on shape or dtype mismatch; callers validate user input
// before reaching the backend.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// Scalar and unary operations (element-wise)
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	Abs(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor
	Transpose(x *RawTensor) *RawTensor // 2D only

	// Conv2D: input [N, C_in, H, W], kernel [C_out, C_in, K_h, K_w]
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Shape operations
	Reshape(x *RawTensor, newShape Shape) *RawTensor

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                           // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // sum along dimension

	// Metadata
	Name() string
	Device() Device
}
