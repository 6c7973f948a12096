package attribution

import (
	"math"

	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// Taylor scores each unit by a first-order estimate of the loss change its
// removal would cause. Zeroing unit u perturbs the activation by -a_u, so
// to first order the loss changes by
//
//	t_u = -Σ_entries a_u · ∂loss/∂a_u
//
// per batch. The unsigned variant (default) accumulates |t_u| per batch,
// ranking by expected disruption either way; the signed variant accumulates
// t_u itself, so negative scores mark units whose removal should REDUCE
// the loss. Both average over batches.
type Taylor[B tensor.Backend] struct {
	metricBase[B]
	signed bool
}

// TaylorConfig configures the Taylor metric.
type TaylorConfig struct {
	Signed bool // keep the sign of the estimated loss change
}

// NewTaylor creates a Taylor metric. The data loader's backend must record
// gradients (autodiff.New).
func NewTaylor[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B], config TaylorConfig) *Taylor[B] {
	return &Taylor[B]{
		metricBase: metricBase[B]{model: model, data: data, loss: loss},
		signed:     config.Signed,
	}
}

// Run scores the units of layer by first-order loss change.
func (t *Taylor[B]) Run(layer nn.Module[B]) ([]float32, error) {
	if err := t.validate(layer); err != nil {
		return nil, err
	}

	var acc []float64
	var batch []float64

	numBatches, err := t.forEachGradientBatch(layer, func(act, grad *tensor.RawTensor) {
		units := act.Shape()[1]
		if acc == nil {
			acc = make([]float64, units)
			batch = make([]float64, units)
		}
		if grad == nil {
			return
		}

		for u := range batch {
			batch[u] = 0
		}

		// activation·gradient elementwise, summed per unit
		actData := act.AsFloat32()
		gradData := grad.AsFloat32()
		inner := 1
		for _, dim := range act.Shape()[2:] {
			inner *= dim
		}
		for i := range actData {
			batch[(i/inner)%units] += float64(actData[i]) * float64(gradData[i])
		}

		for u := range acc {
			if t.signed {
				acc[u] += -batch[u]
			} else {
				acc[u] += math.Abs(batch[u])
			}
		}
	})
	if err != nil {
		return nil, err
	}

	scores := make([]float32, len(acc))
	for u := range scores {
		scores[u] = float32(acc[u] / float64(numBatches))
	}
	return scores, nil
}
