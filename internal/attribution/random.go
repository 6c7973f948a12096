package attribution

import (
	"math/rand"

	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// Random assigns each unit a uniform score in [0, 1).
//
// It is the pruning baseline: any informative metric should outperform a
// random ranking on held-out loss.
type Random[B tensor.Backend] struct {
	metricBase[B]
	rng *rand.Rand
}

// RandomConfig configures the Random metric.
type RandomConfig struct {
	Seed int64 // seed for the score generator; the same seed reproduces the same ranking
}

// NewRandom creates a Random metric.
func NewRandom[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B], config RandomConfig) *Random[B] {
	return &Random[B]{
		metricBase: metricBase[B]{model: model, data: data, loss: loss},
		//nolint:gosec // reproducible scoring, not cryptography
		rng: rand.New(rand.NewSource(config.Seed)),
	}
}

// Run returns one uniform random score per unit of layer.
func (r *Random[B]) Run(layer nn.Module[B]) ([]float32, error) {
	if err := r.validate(layer); err != nil {
		return nil, err
	}

	units, err := r.numUnits(layer)
	if err != nil {
		return nil, err
	}

	scores := make([]float32, units)
	for i := range scores {
		scores[i] = r.rng.Float32()
	}
	return scores, nil
}
