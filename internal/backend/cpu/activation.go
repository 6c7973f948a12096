package cpu

import (
	"math"

	"github.com/prune-ml/prune/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.scalarOp("relu", x,
		func(v float32) float32 {
			if v > 0 {
				return v
			}
			return 0
		},
		func(v float64) float64 {
			if v > 0 {
				return v
			}
			return 0
		})
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.scalarOp("sigmoid", x,
		func(v float32) float32 {
			return float32(1.0 / (1.0 + math.Exp(-float64(v))))
		},
		func(v float64) float64 {
			return 1.0 / (1.0 + math.Exp(-v))
		})
}
