// Copyright 2026 Prune ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: Pure Go
//   - backend/webgpu: Cross-platform GPU compute via WebGPU
//
// Decorator backends for additional functionality:
//   - autodiff: Automatic differentiation (wraps any backend)
//
// Example:
//
//	import (
//	    "github.com/prune-ml/prune/tensor"
//	    "github.com/prune-ml/prune/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.Add under the hood
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting).
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.
	Div(a, b *RawTensor) *RawTensor // Element-wise division.

	// Matrix operations (2D).
	MatMul(a, b *RawTensor) *RawTensor // Matrix multiplication.

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor // Reshape tensor.
	Transpose(t *RawTensor, axes ...int) *RawTensor  // Transpose dimensions.

	// Scalar operations (element-wise with a scalar).
	Scale(x *RawTensor, s float64) *RawTensor     // Multiply by scalar.
	AddScalar(x *RawTensor, s float64) *RawTensor // Add scalar.

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor    // max(0, x).
	Sigmoid(x *RawTensor) *RawTensor // 1 / (1 + exp(-x)).

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor                            // Total sum, shape {1}.
	Mean(x *RawTensor) *RawTensor                           // Total mean, shape {1}.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // Sum along dimension.
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // Mean along dimension.

	// Metadata.
	Name() string   // Human-readable backend name.
	Device() Device // Compute device.
}
