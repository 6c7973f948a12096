package attribution

import (
	"math"

	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// Sensitivity scores each unit by the magnitude of the loss gradient at its
// output, averaged over batches:
//
//	score_u = (1/numBatches) Σ_batches Σ_entries |∂loss/∂activation_u|
//
// Units the loss is insensitive to score near zero; on a perfectly fitted
// model every score is zero.
type Sensitivity[B tensor.Backend] struct {
	metricBase[B]
}

// NewSensitivity creates a Sensitivity metric. The data loader's backend
// must record gradients (autodiff.New).
func NewSensitivity[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B]) *Sensitivity[B] {
	return &Sensitivity[B]{
		metricBase: metricBase[B]{model: model, data: data, loss: loss},
	}
}

// Run scores the units of layer by mean absolute gradient.
func (s *Sensitivity[B]) Run(layer nn.Module[B]) ([]float32, error) {
	if err := s.validate(layer); err != nil {
		return nil, err
	}

	var acc []float64

	numBatches, err := s.forEachGradientBatch(layer, func(act, grad *tensor.RawTensor) {
		if acc == nil {
			acc = make([]float64, act.Shape()[1])
		}
		if grad == nil {
			return
		}
		forEachUnit(grad, func(unit int, v float32) {
			acc[unit] += math.Abs(float64(v))
		})
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
