package ops

import "github.com/prune-ml/prune/internal/tensor"

// ReLUOp represents the rectified linear unit: output = max(0, input).
// The gradient passes through where the input was positive and is zero
// elsewhere.
type ReLUOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
	}
}

func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]

	mask, err := tensor.NewRaw(input.Shape(), input.DType(), input.Device())
	if err != nil {
		panic("relu backward: " + err.Error())
	}

	switch input.DType() {
	case tensor.Float32:
		src := input.AsFloat32()
		dst := mask.AsFloat32()
		for i, v := range src {
			if v > 0 {
				dst[i] = 1
			}
		}
	case tensor.Float64:
		src := input.AsFloat64()
		dst := mask.AsFloat64()
		for i, v := range src {
			if v > 0 {
				dst[i] = 1
			}
		}
	}

	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ReLUOp) Output() *tensor.RawTensor   { return op.output }

// SigmoidOp represents the logistic sigmoid: output = 1/(1+exp(-input)).
// The derivative reuses the forward output: σ'(x) = σ(x)·(1-σ(x)).
type SigmoidOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
	}
}

func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output

	deriv, err := tensor.NewRaw(out.Shape(), out.DType(), out.Device())
	if err != nil {
		panic("sigmoid backward: " + err.Error())
	}

	switch out.DType() {
	case tensor.Float32:
		src := out.AsFloat32()
		dst := deriv.AsFloat32()
		for i, v := range src {
			dst[i] = v * (1 - v)
		}
	case tensor.Float64:
		src := out.AsFloat64()
		dst := deriv.AsFloat64()
		for i, v := range src {
			dst[i] = v * (1 - v)
		}
	}

	return []*tensor.RawTensor{backend.Mul(outputGrad, deriv)}
}

func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SigmoidOp) Output() *tensor.RawTensor   { return op.output }
