package cpu

import (
	"fmt"

	"github.com/prune-ml/prune/internal/tensor"
)

// Scale multiplies every element by s.
func (cpu *CPUBackend) Scale(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return cpu.scalarOp("scale", x,
		func(v float32) float32 { return v * float32(s) },
		func(v float64) float64 { return v * s })
}

// AddScalar adds s to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return cpu.scalarOp("addscalar", x,
		func(v float32) float32 { return v + float32(s) },
		func(v float64) float64 { return v + s })
}

// scalarOp applies f element-wise, writing into x's buffer when x holds the
// only reference.
func (cpu *CPUBackend) scalarOp(
	name string,
	x *tensor.RawTensor,
	f32 func(v float32) float32,
	f64 func(v float64) float64,
) *tensor.RawTensor {
	result := x
	if !x.IsUnique() {
		var err error
		result, err = tensor.NewRaw(x.Shape(), x.DType(), x.Device())
		if err != nil {
			panic(fmt.Sprintf("%s: %v", name, err))
		}
	}

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		dst := result.AsFloat32()
		for i := range src {
			dst[i] = f32(src[i])
		}
	case tensor.Float64:
		src := x.AsFloat64()
		dst := result.AsFloat64()
		for i := range src {
			dst[i] = f64(src[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype: %s", name, x.DType()))
	}

	return result
}
