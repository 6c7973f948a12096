//go:build windows

package webgpu

import (
	"fmt"

	"github.com/prune-ml/prune/internal/tensor"
)

// Add performs element-wise addition on GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes(a, other)
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes(a, other)
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes(a, other)
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division on GPU.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes(a, other)
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// MatMul performs matrix multiplication on GPU.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// Reshape returns a tensor with new shape. The element count must match.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic("webgpu: reshape: invalid shape: " + err.Error())
	}
	if t.NumElements() != newShape.NumElements() {
		panic("webgpu: reshape: incompatible number of elements")
	}

	result, err := tensor.NewRaw(newShape, t.DType(), tensor.WebGPU)
	if err != nil {
		panic("webgpu: reshape: " + err.Error())
	}

	copy(result.Data(), t.Data())
	return result
}

// Transpose transposes the tensor by permuting its dimensions.
// Only 2D transpose runs on GPU; other ranks are not supported.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	if len(t.Shape()) == 2 && (len(axes) == 0 || (len(axes) == 2 && axes[0] == 1 && axes[1] == 0)) {
		result, err := b.runTranspose(t)
		if err != nil {
			panic("webgpu: Transpose: " + err.Error())
		}
		return result
	}
	panic(fmt.Sprintf("webgpu: transpose not supported for shape %v axes %v", t.Shape(), axes))
}

// Scale multiplies every element by s on GPU.
func (b *Backend) Scale(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	result, err := b.runScalarOp(x, float32(s), "scalarMul", scalarMulShader)
	if err != nil {
		panic("webgpu: Scale: " + err.Error())
	}
	return result
}

// AddScalar adds s to every element on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	result, err := b.runScalarOp(x, float32(s), "scalarAdd", scalarAddShader)
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// ReLU applies ReLU activation: max(0, x).
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "relu", reluShader)
	if err != nil {
		panic("webgpu: ReLU: " + err.Error())
	}
	return result
}

// Sigmoid applies sigmoid activation: 1 / (1 + exp(-x)).
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sigmoid", sigmoidShader)
	if err != nil {
		panic("webgpu: Sigmoid: " + err.Error())
	}
	return result
}

// Sum reduces all elements to a single value, shape {1}.
// Reductions run on the host; the data has already been read back.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.reduceAll(x, false)
}

// Mean reduces all elements to their average, shape {1}.
func (b *Backend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	return b.reduceAll(x, true)
}

// SumDim sums along the given dimension.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along the given dimension.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduceDim(x, dim, keepDim, true)
}

// alignShapes expands the smaller operand on the host when shapes differ,
// so the same-shape GPU shaders can run. Only leading-1 broadcasting of the
// kind Linear's bias needs is supported.
func (b *Backend) alignShapes(a, other *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor) {
	if a.Shape().Equal(other.Shape()) {
		return a, other
	}
	if expanded, ok := broadcastTo(other, a.Shape()); ok {
		return a, expanded
	}
	if expanded, ok := broadcastTo(a, other.Shape()); ok {
		return expanded, other
	}
	panic(fmt.Sprintf("webgpu: incompatible shapes %v and %v", a.Shape(), other.Shape()))
}

// broadcastTo materializes t expanded to target, or reports that t does not
// broadcast to target.
func broadcastTo(t *tensor.RawTensor, target tensor.Shape) (*tensor.RawTensor, bool) {
	src := t.Shape()
	if len(src) > len(target) {
		return nil, false
	}

	// Right-aligned strides; stride 0 repeats the source along that dim.
	strides := make([]int, len(target))
	stride := 1
	for i := len(src) - 1; i >= 0; i-- {
		o := i + len(target) - len(src)
		switch {
		case src[i] == target[o]:
			strides[o] = stride
			stride *= src[i]
		case src[i] == 1:
			strides[o] = 0
		default:
			return nil, false
		}
	}

	result, err := tensor.NewRaw(target, t.DType(), tensor.WebGPU)
	if err != nil {
		return nil, false
	}

	in := t.AsFloat32()
	out := result.AsFloat32()
	idx := make([]int, len(target))
	for i := range out {
		srcIdx := 0
		for d := range idx {
			srcIdx += idx[d] * strides[d]
		}
		out[i] = in[srcIdx]

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < target[d] {
				break
			}
			idx[d] = 0
		}
	}
	return result, true
}

func (b *Backend) reduceAll(x *tensor.RawTensor, mean bool) *tensor.RawTensor {
	data := x.AsFloat32()
	var sum float64
	for _, v := range data {
		sum += float64(v)
	}
	if mean {
		sum /= float64(len(data))
	}

	result, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic("webgpu: reduce: " + err.Error())
	}
	result.AsFloat32()[0] = float32(sum)
	return result
}

func (b *Backend) reduceDim(x *tensor.RawTensor, dim int, keepDim bool, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("webgpu: reduce dim %d out of range for shape %v", dim, shape))
	}

	outer := 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	dimSize := shape[dim]
	inner := 1
	for _, d := range shape[dim+1:] {
		inner *= d
	}

	var outShape tensor.Shape
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		panic("webgpu: reduce: " + err.Error())
	}

	in := x.AsFloat32()
	out := result.AsFloat32()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var sum float64
			for d := 0; d < dimSize; d++ {
				sum += float64(in[(o*dimSize+d)*inner+i])
			}
			if mean {
				sum /= float64(dimSize)
			}
			out[o*inner+i] = float32(sum)
		}
	}
	return result
}
