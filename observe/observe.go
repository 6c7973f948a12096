// Copyright 2026 Prune ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package observe provides model instrumentation: activation capture and
// unit masking via forward hooks.
//
// Example:
//
//	capture, err := observe.NewCapture(model, layer)
//	defer capture.Close()
//	model.Forward(x)
//	act := capture.Activation()
package observe

import (
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// Model is the interface instrumented models must satisfy.
type Model[B tensor.Backend] = observe.Model[B]

// Capture records a layer's most recent forward output.
type Capture[B tensor.Backend] = observe.Capture[B]

// NewCapture attaches a passive forward hook to target that stores its
// output after each forward pass.
func NewCapture[B tensor.Backend](model Model[B], target nn.Module[B]) (*Capture[B], error) {
	return observe.NewCapture(model, target)
}

// Mask zeroes selected units of a layer's output during forward passes.
type Mask[B tensor.Backend] = observe.Mask[B]

// NewMask attaches a masking hook to target. All units start enabled.
func NewMask[B tensor.Backend](model Model[B], target nn.Module[B], units int, backend B) (*Mask[B], error) {
	return observe.NewMask(model, target, units, backend)
}
