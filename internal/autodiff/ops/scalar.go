package ops

import "github.com/prune-ml/prune/internal/tensor"

// ScaleOp represents scalar multiplication: output = input * s.
type ScaleOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	scale  float64
}

// NewScaleOp creates a new ScaleOp.
func NewScaleOp(input, output *tensor.RawTensor, scale float64) *ScaleOp {
	return &ScaleOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
		scale:  scale,
	}
}

func (op *ScaleOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	return []*tensor.RawTensor{backend.Scale(outputGrad, op.scale)}
}

func (op *ScaleOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ScaleOp) Output() *tensor.RawTensor   { return op.output }

// AddScalarOp represents scalar addition: output = input + s.
// The gradient passes through unchanged.
type AddScalarOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddScalarOp creates a new AddScalarOp.
func NewAddScalarOp(input, output *tensor.RawTensor) *AddScalarOp {
	return &AddScalarOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
	}
}

func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}

func (op *AddScalarOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *AddScalarOp) Output() *tensor.RawTensor   { return op.output }
