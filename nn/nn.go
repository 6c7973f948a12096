// Copyright 2026 Prune ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks.
//
// The package contains:
//   - Module: the interface all layers implement
//   - Linear: fully connected layer
//   - ReLU, Sigmoid: activation layers
//   - Sequential: module container with forward-hook support
//   - MSELoss: mean squared error criterion
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewSequential[*autodiff.Backend[*cpu.Backend]](
//	    nn.NewLinear(2, 4, false, backend),
//	    nn.NewReLU[*autodiff.Backend[*cpu.Backend]](),
//	    nn.NewLinear(4, 1, false, backend),
//	)
//	pred := model.Forward(x)
package nn

import (
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/tensor"
)

// Module is the interface implemented by all network layers.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named, trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a named parameter wrapping t.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Linear is a fully connected layer: output = input @ weightᵀ + bias.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier-initialized weights.
// When bias is true, a zero-initialized bias vector is added.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, bias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, bias, backend)
}

// ReLU is the rectified linear activation layer.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid is the logistic activation layer.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a sigmoid activation layer.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Sequential chains modules and runs them in order.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// ForwardHook observes or replaces a module's output during Forward.
// A nil return leaves the output unchanged.
type ForwardHook[B tensor.Backend] = nn.ForwardHook[B]

// HookHandle detaches a registered forward hook.
type HookHandle = nn.HookHandle

// HookRegistrar is implemented by containers that accept forward hooks.
type HookRegistrar[B tensor.Backend] = nn.HookRegistrar[B]

// ErrModuleNotFound is returned when a hook target is not part of the model.
var ErrModuleNotFound = nn.ErrModuleNotFound

// MSELoss is the mean squared error criterion.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates an MSE criterion.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}
