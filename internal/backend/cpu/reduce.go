package cpu

import (
	"fmt"

	"github.com/prune-ml/prune/internal/tensor"
)

// Sum reduces the tensor to its total sum, shape {1}.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		var total float32
		for _, v := range x.AsFloat32() {
			total += v
		}
		result.AsFloat32()[0] = total
	case tensor.Float64:
		var total float64
		for _, v := range x.AsFloat64() {
			total += v
		}
		result.AsFloat64()[0] = total
	default:
		panic(fmt.Sprintf("sum: unsupported dtype: %s", x.DType()))
	}

	return result
}

// Mean reduces the tensor to its total mean, shape {1}.
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.Sum(x)
	n := float64(x.NumElements())

	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] /= float32(n)
	case tensor.Float64:
		result.AsFloat64()[0] /= n
	}

	return result
}

// SumDim sums along the given dimension.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim, false)
}

// MeanDim averages along the given dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("meandim", x, dim, keepDim, true)
}

// reduceDim collapses dimension dim by summation. The layout decomposes into
// outer*dimSize*inner blocks, so the reduction is three nested loops over
// contiguous memory.
func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("%s: invalid dimension %d for shape %v", name, dim, shape))
	}

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	dimSize := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, len(shape)-1)
		for i, d := range shape {
			if i != dim {
				outShape = append(outShape, d)
			}
		}
		if len(outShape) == 0 {
			outShape = tensor.Shape{1}
		}
	}

	result, err := tensor.NewRaw(outShape, x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		dst := result.AsFloat32()
		for o := 0; o < outer; o++ {
			for d := 0; d < dimSize; d++ {
				base := (o*dimSize + d) * inner
				outBase := o * inner
				for i := 0; i < inner; i++ {
					dst[outBase+i] += src[base+i]
				}
			}
		}
		if mean {
			for i := range dst {
				dst[i] /= float32(dimSize)
			}
		}
	case tensor.Float64:
		src := x.AsFloat64()
		dst := result.AsFloat64()
		for o := 0; o < outer; o++ {
			for d := 0; d < dimSize; d++ {
				base := (o*dimSize + d) * inner
				outBase := o * inner
				for i := 0; i < inner; i++ {
					dst[outBase+i] += src[base+i]
				}
			}
		}
		if mean {
			for i := range dst {
				dst[i] /= float64(dimSize)
			}
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype: %s", name, x.DType()))
	}

	return result
}
