package ops

import "github.com/prune-ml/prune/internal/tensor"

// SumOp represents a total reduction: output = sum(input), shape {1}.
// The backward pass broadcasts the scalar gradient to the input shape.
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
	}
}

func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]
	g := scalarValue(outputGrad)
	return []*tensor.RawTensor{fill(input.Shape(), input.DType(), input.Device(), g)}
}

func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SumOp) Output() *tensor.RawTensor   { return op.output }

// MeanOp represents a total mean reduction: output = mean(input), shape {1}.
// Each input element receives outputGrad / N.
type MeanOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMeanOp creates a new MeanOp.
func NewMeanOp(input, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
	}
}

func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]
	g := scalarValue(outputGrad) / float64(input.NumElements())
	return []*tensor.RawTensor{fill(input.Shape(), input.DType(), input.Device(), g)}
}

func (op *MeanOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MeanOp) Output() *tensor.RawTensor   { return op.output }

// scalarValue reads the single element of a {1}-shaped gradient.
func scalarValue(t *tensor.RawTensor) float64 {
	switch t.DType() {
	case tensor.Float32:
		return float64(t.AsFloat32()[0])
	case tensor.Float64:
		return t.AsFloat64()[0]
	default:
		panic("scalarValue: unsupported dtype " + t.DType().String())
	}
}
