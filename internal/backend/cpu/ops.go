package cpu

import (
	"fmt"

	"github.com/prune-ml/prune/internal/tensor"
)

// binaryOp dispatches an element-wise binary operation.
//
// Same-shape inputs take a fast path that writes into a's buffer when a holds
// the only reference (IsUnique). Otherwise the result is freshly allocated,
// with NumPy-style broadcasting when the shapes differ.
func (cpu *CPUBackend) binaryOp(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	if a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			applySameShape(a, a, b, f32, f64)
			return a
		}

		result, err := tensor.NewRaw(a.Shape(), a.DType(), a.Device())
		if err != nil {
			panic(fmt.Sprintf("%s: %v", name, err))
		}
		applySameShape(result, a, b, f32, f64)
		return result
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), a.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	applyBroadcast(result, a, b, f32, f64)
	return result
}

func applySameShape(
	dst, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) {
	switch a.DType() {
	case tensor.Float32:
		out := dst.AsFloat32()
		x := a.AsFloat32()
		y := b.AsFloat32()
		for i := range out {
			out[i] = f32(x[i], y[i])
		}
	case tensor.Float64:
		out := dst.AsFloat64()
		x := a.AsFloat64()
		y := b.AsFloat64()
		for i := range out {
			out[i] = f64(x[i], y[i])
		}
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", a.DType()))
	}
}

// broadcastStrides returns strides for in aligned right-to-left against out,
// with stride 0 on broadcast (size-1 or missing) dimensions. Indexing with
// these strides maps an out coordinate to the matching in element.
func broadcastStrides(out, in tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))

	for i := 0; i < len(out); i++ {
		inIdx := len(in) - len(out) + i
		if inIdx < 0 || in[inIdx] == 1 {
			strides[i] = 0
		} else {
			strides[i] = inStrides[inIdx]
		}
	}
	return strides
}

func applyBroadcast(
	dst, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) {
	outShape := dst.Shape()
	aStrides := broadcastStrides(outShape, a.Shape())
	bStrides := broadcastStrides(outShape, b.Shape())

	n := outShape.NumElements()
	idx := make([]int, len(outShape))

	switch dst.DType() {
	case tensor.Float32:
		out := dst.AsFloat32()
		x := a.AsFloat32()
		y := b.AsFloat32()
		for flat := 0; flat < n; flat++ {
			aOff, bOff := 0, 0
			for d := range idx {
				aOff += idx[d] * aStrides[d]
				bOff += idx[d] * bStrides[d]
			}
			out[flat] = f32(x[aOff], y[bOff])
			increment(idx, outShape)
		}
	case tensor.Float64:
		out := dst.AsFloat64()
		x := a.AsFloat64()
		y := b.AsFloat64()
		for flat := 0; flat < n; flat++ {
			aOff, bOff := 0, 0
			for d := range idx {
				aOff += idx[d] * aStrides[d]
				bOff += idx[d] * bStrides[d]
			}
			out[flat] = f64(x[aOff], y[bOff])
			increment(idx, outShape)
		}
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", dst.DType()))
	}
}

// increment advances a multi-dimensional index in row-major order.
func increment(idx []int, shape tensor.Shape) {
	for d := len(idx) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < shape[d] {
			return
		}
		idx[d] = 0
	}
}

// transposeData copies t's elements into result following the axis
// permutation. result must already carry the permuted shape.
func transposeData(result, t *tensor.RawTensor, axes []int) {
	srcShape := t.Shape()
	srcStrides := srcShape.ComputeStrides()
	dstShape := result.Shape()

	n := dstShape.NumElements()
	idx := make([]int, len(dstShape))

	switch t.DType() {
	case tensor.Float32:
		src := t.AsFloat32()
		dst := result.AsFloat32()
		for flat := 0; flat < n; flat++ {
			srcOff := 0
			for d := range idx {
				srcOff += idx[d] * srcStrides[axes[d]]
			}
			dst[flat] = src[srcOff]
			increment(idx, dstShape)
		}
	case tensor.Float64:
		src := t.AsFloat64()
		dst := result.AsFloat64()
		for flat := 0; flat < n; flat++ {
			srcOff := 0
			for d := range idx {
				srcOff += idx[d] * srcStrides[axes[d]]
			}
			dst[flat] = src[srcOff]
			increment(idx, dstShape)
		}
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype: %s", t.DType()))
	}
}
