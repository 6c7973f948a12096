package attribution

import (
	"fmt"
	"math/rand"

	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// Shapley estimates each unit's Shapley value for the coalitional game
// whose payoff is the loss reduction the units jointly provide.
//
// Monte-Carlo sampling over unit permutations: starting from a fully
// masked layer, units are revealed one at a time in random order, and each
// unit is credited with the loss drop its reveal causes. Averaging over
// permutations and batches converges to the exact Shapley values, which
// uniquely split the total loss reduction according to marginal
// contribution.
//
// Cost is samples × (units+1) forward passes per batch; this is by far the
// most expensive metric and also the only one that accounts for unit
// interactions (redundant twins split credit instead of double-counting).
type Shapley[B tensor.Backend] struct {
	metricBase[B]
	samples int
	seed    int64
}

// ShapleyConfig configures the Shapley metric.
type ShapleyConfig struct {
	Samples int   // permutations sampled per batch; must be positive
	Seed    int64 // permutation generator seed, the same seed reproduces the estimate
}

// NewShapley creates a Shapley metric.
func NewShapley[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B], config ShapleyConfig) *Shapley[B] {
	return &Shapley[B]{
		metricBase: metricBase[B]{model: model, data: data, loss: loss},
		samples:    config.Samples,
		seed:       config.Seed,
	}
}

// Run estimates per-unit Shapley values for layer.
func (s *Shapley[B]) Run(layer nn.Module[B]) ([]float32, error) {
	if s.samples <= 0 {
		return nil, fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidConfiguration, s.samples)
	}
	if err := s.validate(layer); err != nil {
		return nil, err
	}

	units, err := s.numUnits(layer)
	if err != nil {
		return nil, err
	}

	mask, err := observe.NewMask(s.model, layer, units, s.data.Backend())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayer, err)
	}
	defer mask.Close()

	// Masked replay only needs forward passes; make sure none of them
	// lands on a gradient tape.
	if tape, tapeErr := s.gradientTape(); tapeErr == nil && tape.IsRecording() {
		tape.StopRecording()
		defer tape.StartRecording()
	}

	//nolint:gosec // reproducible sampling, not cryptography
	rng := rand.New(rand.NewSource(s.seed))

	acc := make([]float64, units)
	numBatches := 0

	s.data.Reset()
	for {
		xb, yb, ok := s.data.Next()
		if !ok {
			break
		}

		for sample := 0; sample < s.samples; sample++ {
			mask.SetAll(false)
			prevLoss := s.evalLoss(xb, yb)

			for _, unit := range rng.Perm(units) {
				mask.Set(unit, true)
				newLoss := s.evalLoss(xb, yb)
				acc[unit] += float64(prevLoss - newLoss)
				prevLoss = newLoss
			}
		}
		numBatches++
	}

	if numBatches == 0 {
		return nil, fmt.Errorf("%w: data loader is empty", ErrInvalidConfiguration)
	}

	scores := make([]float32, units)
	norm := float64(s.samples * numBatches)
	for u := range scores {
		scores[u] = float32(acc[u] / norm)
	}
	return scores, nil
}

func (s *Shapley[B]) evalLoss(xb, yb *tensor.Tensor[float32, B]) float32 {
	return s.loss(s.model.Forward(xb), yb).Item()
}
