package ops

import "github.com/prune-ml/prune/internal/tensor"

// SumDimOp represents a reduction along one dimension.
// The backward pass broadcasts the gradient back along the reduced dimension.
type SumDimOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(input, output *tensor.RawTensor, dim int) *SumDimOp {
	return &SumDimOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
		dim:    dim,
	}
}

func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{expandAlongDim(outputGrad, op.inputs[0], op.dim, 1)}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SumDimOp) Output() *tensor.RawTensor   { return op.output }

// MeanDimOp represents an average along one dimension.
// Backward is the SumDim gradient divided by the dimension size.
type MeanDimOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int) *MeanDimOp {
	return &MeanDimOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
		dim:    dim,
	}
}

func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]
	scale := 1.0 / float64(input.Shape()[op.dim])
	return []*tensor.RawTensor{expandAlongDim(outputGrad, input, op.dim, scale)}
}

func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MeanDimOp) Output() *tensor.RawTensor   { return op.output }

// expandAlongDim broadcasts grad back to input's shape along dim, scaling
// each element. grad's layout is the input with dim collapsed, whether or
// not keepDim inserted a size-1 dimension.
func expandAlongDim(grad, input *tensor.RawTensor, dim int, scale float64) *tensor.RawTensor {
	shape := input.Shape()

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	dimSize := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	result, err := tensor.NewRaw(shape, input.DType(), input.Device())
	if err != nil {
		panic("expandAlongDim: " + err.Error())
	}

	switch input.DType() {
	case tensor.Float32:
		src := grad.AsFloat32()
		dst := result.AsFloat32()
		s := float32(scale)
		for o := 0; o < outer; o++ {
			for d := 0; d < dimSize; d++ {
				base := (o*dimSize + d) * inner
				srcBase := o * inner
				for i := 0; i < inner; i++ {
					dst[base+i] = src[srcBase+i] * s
				}
			}
		}
	case tensor.Float64:
		src := grad.AsFloat64()
		dst := result.AsFloat64()
		for o := 0; o < outer; o++ {
			for d := 0; d < dimSize; d++ {
				base := (o*dimSize + d) * inner
				srcBase := o * inner
				for i := 0; i < inner; i++ {
					dst[base+i] = src[srcBase+i] * scale
				}
			}
		}
	}

	return result
}
