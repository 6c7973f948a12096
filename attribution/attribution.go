// Copyright 2026 Prune ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package attribution scores the units of a network layer by their
// importance, producing per-unit pruning signals.
//
// All metrics implement the Metric interface: Run evaluates the model on
// the metric's data loader and returns one score per unit of the target
// layer. Low scores mark pruning candidates.
//
// Available metrics:
//   - Random: uniform noise baseline
//   - WeightNorm: Lp norm of each unit's incoming weights
//   - APoZ: fraction of evaluation entries with positive activation
//   - Sensitivity: mean absolute loss gradient at the unit's output
//   - Taylor: first-order estimate of the loss change from unit removal
//   - Shapley: Monte-Carlo Shapley value of the unit's loss contribution
//
// Gradient-based metrics (Sensitivity, Taylor) require the model to run on
// an autodiff backend. Example:
//
//	backend := autodiff.New(cpu.New())
//	metric := attribution.NewTaylor(model, loader, criterion.Forward, attribution.TaylorConfig{})
//	scores, err := metric.Run(layer)
package attribution

import (
	"github.com/prune-ml/prune/internal/attribution"
	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// Sentinel errors returned by metric Run methods.
var (
	// ErrInvalidLayer marks a target layer that is not part of the model
	// or lacks what the metric needs (e.g. weights for WeightNorm).
	ErrInvalidLayer = attribution.ErrInvalidLayer

	// ErrInvalidConfiguration marks unusable metric configuration, such as
	// a non-positive sample count or a backend without gradient support.
	ErrInvalidConfiguration = attribution.ErrInvalidConfiguration

	// ErrDeviceMismatch marks data and model living on different devices.
	ErrDeviceMismatch = attribution.ErrDeviceMismatch
)

// LossFunc computes the scalar training loss for a batch of predictions.
type LossFunc[B tensor.Backend] = attribution.LossFunc[B]

// Metric scores the units of a layer.
type Metric[B tensor.Backend] = attribution.Metric[B]

// Random is a uniform-noise baseline metric.
type Random[B tensor.Backend] = attribution.Random[B]

// RandomConfig configures the Random metric.
type RandomConfig = attribution.RandomConfig

// NewRandom creates a Random metric.
func NewRandom[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B], config RandomConfig) *Random[B] {
	return attribution.NewRandom(model, data, loss, config)
}

// WeightNorm scores units by the Lp norm of their incoming weights.
type WeightNorm[B tensor.Backend] = attribution.WeightNorm[B]

// WeightNormConfig configures the WeightNorm metric.
type WeightNormConfig = attribution.WeightNormConfig

// NewWeightNorm creates a WeightNorm metric.
func NewWeightNorm[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B], config WeightNormConfig) *WeightNorm[B] {
	return attribution.NewWeightNorm(model, data, loss, config)
}

// APoZ scores units by their positive-activation rate.
type APoZ[B tensor.Backend] = attribution.APoZ[B]

// NewAPoZ creates an APoZ metric.
func NewAPoZ[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B]) *APoZ[B] {
	return attribution.NewAPoZ(model, data, loss)
}

// Sensitivity scores units by mean absolute loss gradient.
type Sensitivity[B tensor.Backend] = attribution.Sensitivity[B]

// NewSensitivity creates a Sensitivity metric. Requires an autodiff backend.
func NewSensitivity[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B]) *Sensitivity[B] {
	return attribution.NewSensitivity(model, data, loss)
}

// Taylor scores units by a first-order estimate of the loss change their
// removal would cause.
type Taylor[B tensor.Backend] = attribution.Taylor[B]

// TaylorConfig configures the Taylor metric.
type TaylorConfig = attribution.TaylorConfig

// NewTaylor creates a Taylor metric. Requires an autodiff backend.
func NewTaylor[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B], config TaylorConfig) *Taylor[B] {
	return attribution.NewTaylor(model, data, loss, config)
}

// Shapley estimates per-unit Shapley values by Monte-Carlo permutation
// sampling.
type Shapley[B tensor.Backend] = attribution.Shapley[B]

// ShapleyConfig configures the Shapley metric.
type ShapleyConfig = attribution.ShapleyConfig

// NewShapley creates a Shapley metric.
func NewShapley[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B], config ShapleyConfig) *Shapley[B] {
	return attribution.NewShapley(model, data, loss, config)
}
