package attribution

import (
	"fmt"

	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// APoZ scores each unit by the fraction of evaluation entries on which its
// output is positive (would survive a downstream ReLU).
//
// Despite the name, which comes from "Average Percentage of Zeros", the
// returned score counts ACTIVE entries: a unit that is positive everywhere
// scores 1 and a unit that never fires scores 0, keeping the convention
// that low scores mark pruning candidates.
type APoZ[B tensor.Backend] struct {
	metricBase[B]
}

// NewAPoZ creates an APoZ metric.
func NewAPoZ[B tensor.Backend](model observe.Model[B], data *dataset.Loader[B], loss LossFunc[B]) *APoZ[B] {
	return &APoZ[B]{
		metricBase: metricBase[B]{model: model, data: data, loss: loss},
	}
}

// Run scores the units of layer by their positive-activation rate over one
// pass of the evaluation data.
func (a *APoZ[B]) Run(layer nn.Module[B]) ([]float32, error) {
	if err := a.validate(layer); err != nil {
		return nil, err
	}

	capture, err := observe.NewCapture(a.model, layer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayer, err)
	}
	defer capture.Close()

	var active, total []int64

	a.data.Reset()
	for {
		xb, _, ok := a.data.Next()
		if !ok {
			break
		}
		a.model.Forward(xb)

		act := capture.Activation()
		if total == nil {
			units := act.Shape()[1]
			active = make([]int64, units)
			total = make([]int64, units)
		}

		forEachUnit(act, func(unit int, v float32) {
			if v > 0 {
				active[unit]++
			}
			total[unit]++
		})
	}

	if total == nil {
		return nil, fmt.Errorf("%w: data loader is empty", ErrInvalidConfiguration)
	}

	scores := make([]float32, len(active))
	for u := range scores {
		scores[u] = float32(float64(active[u]) / float64(total[u]))
	}
	return scores, nil
}
