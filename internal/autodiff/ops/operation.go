// Package ops defines differentiable operations for reverse-mode autodiff.
//
// Each operation records its input and output RawTensors during the forward
// pass and computes input gradients from the output gradient during the
// backward pass:
//   - AddOp/SubOp: gradient flows through (negated for the subtrahend)
//   - MulOp/DivOp: product and quotient rules
//   - MatMulOp: d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad
//   - TransposeOp/ReshapeOp: gradient permuted or reshaped back
//   - ReLUOp/SigmoidOp: elementwise chain rule
//   - SumOp/MeanOp/ScaleOp: gradient broadcast back to the input shape
package ops

import "github.com/prune-ml/prune/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for the inputs given the output gradient.
	// Returns one gradient per input tensor, in input order.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
