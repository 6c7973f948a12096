package ops

import (
	"fmt"

	"github.com/prune-ml/prune/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target input shape,
// undoing broadcasting performed during the forward pass.
//
// Example:
//
//	Forward: a[1,4] + b[3,4] -> c[3,4]  (a was broadcast along dim 0)
//	Backward: grad_c[3,4] -> grad_a[1,4] (sum along dim 0)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone on matching shapes so later accumulation cannot modify a gradient
	// shared through the grads map.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Align from the right: sum away extra leading dimensions first.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Then sum dimensions where the target is 1.
	for i, dim := range targetShape {
		if dim == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// fill creates a tensor of the given shape with every element set to value.
func fill(shape tensor.Shape, dtype tensor.DataType, device tensor.Device, value float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("fill: %v", err))
	}

	switch dtype {
	case tensor.Float32:
		data := result.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		panic(fmt.Sprintf("fill: unsupported dtype %s", dtype))
	}

	return result
}

// negate returns -grad without modifying grad.
func negate(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	defer grad.ForceNonUnique()()
	return backend.Scale(grad, -1)
}
