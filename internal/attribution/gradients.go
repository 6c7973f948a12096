package attribution

import (
	"fmt"

	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

// forEachGradientBatch runs one epoch with gradient recording, calling fn
// once per batch with the layer's captured activation and its loss
// gradient. grad is nil when no gradient reached the activation.
//
// The gradient arrives through the tape's result map, keyed by the captured
// activation's RawTensor pointer: the tape saw the same pointer as an
// operation output during the forward pass.
//
// Returns the number of batches processed.
func (m *metricBase[B]) forEachGradientBatch(layer nn.Module[B], fn func(act, grad *tensor.RawTensor)) (int, error) {
	tape, err := m.gradientTape()
	if err != nil {
		return 0, err
	}

	capture, err := observe.NewCapture(m.model, layer)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLayer, err)
	}
	defer capture.Close()

	backend := m.data.Backend()
	wasRecording := tape.IsRecording()
	defer func() {
		tape.Clear()
		if wasRecording {
			tape.StartRecording()
		} else {
			tape.StopRecording()
		}
	}()

	m.data.Reset()
	numBatches := 0

	for {
		xb, yb, ok := m.data.Next()
		if !ok {
			break
		}

		tape.Clear()
		tape.StartRecording()

		lossVal := m.loss(m.model.Forward(xb), yb)

		grads := tape.Backward(onesLike(lossVal.Raw()), backend)
		tape.StopRecording()

		fn(capture.Activation(), capture.Gradient(grads))
		numBatches++
	}

	if numBatches == 0 {
		return 0, fmt.Errorf("%w: data loader is empty", ErrInvalidConfiguration)
	}
	return numBatches, nil
}

// onesLike creates a gradient seed of ones matching t.
func onesLike(t *tensor.RawTensor) *tensor.RawTensor {
	seed, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("gradient seed: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := seed.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := seed.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	}
	return seed
}
