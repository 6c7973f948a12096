// Package nn implements neural network modules.
//
// Building blocks:
//   - Module interface: base interface for all components
//   - Parameter: trainable parameters
//   - Linear: fully connected layer with optional bias
//   - Activations: ReLU, Sigmoid
//   - MSELoss: mean squared error
//   - Sequential: container chaining layers, with forward hooks for
//     observing or replacing intermediate activations
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/prune-ml/prune/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules compose into architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, true, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(128, 10, true, backend),
//	)
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	// Linear expects [batch_size, in_features].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Empty for parameterless
	// modules such as activations.
	Parameters() []*Parameter[B]
}
