// Package attribution scores the units of a model layer by their importance
// to the loss, producing per-unit rankings for structured pruning.
//
// All metrics share one call shape: construct with a model, a data loader
// and a loss function, then Run against a target layer:
//
//	metric := attribution.NewTaylor(model, loader, loss, attribution.TaylorConfig{})
//	scores, err := metric.Run(layer)
//
// scores[u] is the attribution of unit u, where units index dimension 1 of
// the layer's output (the neuron axis of a Linear layer). Higher means more
// important, except for signed variants where negative scores mark units
// whose removal would lower the loss.
package attribution

import (
	"fmt"

	"github.com/prune-ml/prune/internal/autodiff"
	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// LossFunc reduces predictions and targets to a scalar loss, shape {1}.
// nn.MSELoss.Forward satisfies it directly.
type LossFunc[B tensor.Backend] func(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

// Metric scores the units of a layer.
type Metric[B tensor.Backend] interface {
	// Run computes per-unit attribution scores for the given layer.
	// The layer must be part of the metric's model.
	Run(layer nn.Module[B]) ([]float32, error)
}

// metricBase carries what every metric needs: the instrumented model, the
// evaluation data and the loss.
type metricBase[B tensor.Backend] struct {
	model observe.Model[B]
	data  *dataset.Loader[B]
	loss  LossFunc[B]
}

// validate checks that layer belongs to the model and that data and
// backend agree on the device.
func (m *metricBase[B]) validate(layer nn.Module[B]) error {
	if layer == nil || !containsModule(m.model.Children(), layer) {
		return fmt.Errorf("%w: layer is not part of the model", ErrInvalidLayer)
	}
	if m.data.Device() != m.data.Backend().Device() {
		return fmt.Errorf("%w: data on %s, backend on %s",
			ErrDeviceMismatch, m.data.Device(), m.data.Backend().Device())
	}
	return nil
}

func containsModule[B tensor.Backend](modules []nn.Module[B], target nn.Module[B]) bool {
	for _, module := range modules {
		if module == target {
			return true
		}
		if container, ok := module.(interface{ Children() []nn.Module[B] }); ok {
			if containsModule(container.Children(), target) {
				return true
			}
		}
	}
	return false
}

// numUnits discovers the unit count of a layer by capturing its output on
// the first batch. Units index dimension 1 of the output.
func (m *metricBase[B]) numUnits(layer nn.Module[B]) (int, error) {
	capture, err := observe.NewCapture(m.model, layer)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLayer, err)
	}
	defer capture.Close()

	m.data.Reset()
	xb, _, ok := m.data.Next()
	if !ok {
		return 0, fmt.Errorf("%w: data loader is empty", ErrInvalidConfiguration)
	}
	m.model.Forward(xb)
	m.data.Reset()

	shape := capture.Activation().Shape()
	if len(shape) < 2 {
		return 0, fmt.Errorf("%w: layer output %v has no unit dimension", ErrInvalidLayer, shape)
	}
	return shape[1], nil
}

// gradientTape extracts the tape from the data's backend. Gradient-based
// metrics require an autodiff-wrapped backend.
func (m *metricBase[B]) gradientTape() (*autodiff.GradientTape, error) {
	backend := m.data.Backend()
	tb, ok := any(backend).(interface{ GetTape() *autodiff.GradientTape })
	if !ok {
		return nil, fmt.Errorf("%w: backend %s does not record gradients (wrap it with autodiff.New)",
			ErrInvalidConfiguration, backend.Name())
	}
	return tb.GetTape(), nil
}

// forEachUnit calls fn for every element of a [batch, units, ...] tensor,
// tagged with its unit index.
func forEachUnit(raw *tensor.RawTensor, fn func(unit int, v float32)) {
	shape := raw.Shape()
	units := shape[1]

	inner := 1
	for _, dim := range shape[2:] {
		inner *= dim
	}

	for i, v := range raw.AsFloat32() {
		fn((i/inner)%units, v)
	}
}
