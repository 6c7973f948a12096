package attribution

import (
	"fmt"
	"math"

	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// WeightNorm scores each unit by the p-norm of its incoming weights.
//
// For a Linear layer with weight [units, in_features], unit u scores
// (Σ_i |w[u,i]|^p)^(1/p). No forward passes are needed, making this the
// cheapest data-free metric.
type WeightNorm[B tensor.Backend] struct {
	metricBase[B]
	ord float64
}

// WeightNormConfig configures the WeightNorm metric.
type WeightNormConfig struct {
	Ord float64 // norm order p > 0; 0 defaults to 1 (sum of absolute weights)
}

// NewWeightNorm creates a WeightNorm metric.
func NewWeightNorm[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B], config WeightNormConfig) *WeightNorm[B] {
	ord := config.Ord
	if ord == 0 {
		ord = 1
	}
	return &WeightNorm[B]{
		metricBase: metricBase[B]{model: model, data: data, loss: loss},
		ord:        ord,
	}
}

// Run scores the units of layer by incoming weight norm.
// The layer must expose a weight matrix; activation modules cannot be
// scored and yield ErrInvalidLayer.
func (w *WeightNorm[B]) Run(layer nn.Module[B]) ([]float32, error) {
	if err := w.validate(layer); err != nil {
		return nil, err
	}
	if w.ord <= 0 {
		return nil, fmt.Errorf("%w: norm order must be positive, got %v", ErrInvalidConfiguration, w.ord)
	}

	weighted, ok := layer.(interface{ Weight() *nn.Parameter[B] })
	if !ok {
		return nil, fmt.Errorf("%w: layer has no weight matrix", ErrInvalidLayer)
	}

	weight := weighted.Weight().Tensor()
	shape := weight.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: expected 2D weight, got shape %v", ErrInvalidLayer, shape)
	}

	units, fanIn := shape[0], shape[1]
	data := weight.Data()

	scores := make([]float32, units)
	for u := 0; u < units; u++ {
		var acc float64
		for i := 0; i < fanIn; i++ {
			acc += math.Pow(math.Abs(float64(data[u*fanIn+i])), w.ord)
		}
		scores[u] = float32(math.Pow(acc, 1/w.ord))
	}
	return scores, nil
}
