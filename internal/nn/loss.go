package nn

import (
	"github.com/prune-ml/prune/internal/tensor"
)

// MSELoss computes mean squared error: loss = mean((predictions - targets)²).
//
// The loss is built from backend operations (Sub, Mul, Mean) so that an
// autodiff backend tapes every step and the backward pass reaches the
// model's parameters and activations.
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward computes the scalar loss, shape {1}.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MSELoss: predictions and targets must have the same shape")
	}

	diff := predictions.Sub(targets)
	return diff.Mul(diff).Mean()
}

// Parameters returns an empty slice.
func (m *MSELoss[B]) Parameters() []*Parameter[B] {
	return nil
}
