// Package optim implements optimization algorithms for fine-tuning models
// between pruning rounds.
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01}, backend)
//	backend.Tape().StartRecording()
//	loss := lossFn.Forward(model.Forward(input), targets)
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/tensor"
)

// Optimizer is the base interface for optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters, given the
	// gradient map produced by a backward pass.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients. Call before each
	// backward pass to prevent accumulation across iterations.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient retrieves the gradient for a parameter, or nil when the
// parameter did not participate in the recorded computation.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
