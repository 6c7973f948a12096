// Package observe instruments models with forward hooks.
//
// Two probe kinds cover the needs of attribution analysis:
//   - Capture records a layer's output activation and, via the gradient
//     tape's result map, the gradient of the loss with respect to it
//   - Mask rewrites a layer's output by zeroing selected units before the
//     rest of the network runs
//
// Probes attach through nn's forward-hook mechanism and detach with Close.
package observe

import (
	"fmt"

	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/tensor"
)

// Model is the minimal model surface a probe needs: a forward pass, a way
// to enumerate submodules, and hook registration. nn.Sequential satisfies it.
type Model[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Children() []nn.Module[B]
	RegisterForwardHook(target nn.Module[B], fn nn.ForwardHook[B]) (*nn.HookHandle, error)
}

// Capture records a target layer's output on every forward pass.
//
// The captured RawTensor pointer is the key under which the gradient tape
// reports the activation's gradient, replacing framework backward hooks.
// A clone pins the buffer so backend inplace fast paths cannot overwrite
// the recorded values.
type Capture[B tensor.Backend] struct {
	handle *nn.HookHandle
	raw    *tensor.RawTensor // output of the last forward pass
	pinned *tensor.RawTensor // clone keeping the buffer refcount above 1
}

// NewCapture attaches a passive capture hook to target inside model.
func NewCapture[B tensor.Backend](model Model[B], target nn.Module[B]) (*Capture[B], error) {
	c := &Capture[B]{}

	handle, err := model.RegisterForwardHook(target, func(_ nn.Module[B], out *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
		if c.pinned != nil {
			c.pinned.Release()
		}
		c.raw = out.Raw()
		c.pinned = c.raw.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("attach capture: %w", err)
	}

	c.handle = handle
	return c, nil
}

// Activation returns the layer output recorded by the last forward pass,
// or nil if no forward pass has run since the capture was attached.
func (c *Capture[B]) Activation() *tensor.RawTensor {
	return c.raw
}

// Gradient looks up the captured activation's gradient in a backward
// result map. Returns nil when no gradient reached the activation.
func (c *Capture[B]) Gradient(grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if c.raw == nil {
		return nil
	}
	return grads[c.raw]
}

// Close detaches the hook and releases the pinned buffer.
func (c *Capture[B]) Close() {
	if c.handle != nil {
		c.handle.Remove()
		c.handle = nil
	}
	if c.pinned != nil {
		c.pinned.Release()
		c.pinned = nil
	}
	c.raw = nil
}

// Mask zeroes selected units of a target layer's output.
//
// Units are indexed along dimension 1 of the output; for a Linear layer
// that is the per-neuron axis. The mask tensor has shape {1, units} and
// broadcasts over the batch (and any trailing spatial dimensions are
// handled by per-element replication during Apply).
type Mask[B tensor.Backend] struct {
	handle  *nn.HookHandle
	units   int
	enabled []float32 // 1 = keep, 0 = zero out
	backend B
}

// NewMask attaches a masking hook to target inside model. All units start
// enabled, so the model behaves identically until Set or SetAll disables
// some.
func NewMask[B tensor.Backend](model Model[B], target nn.Module[B], units int, backend B) (*Mask[B], error) {
	if units <= 0 {
		return nil, fmt.Errorf("mask: units must be positive, got %d", units)
	}

	m := &Mask[B]{
		units:   units,
		enabled: make([]float32, units),
		backend: backend,
	}
	m.SetAll(true)

	handle, err := model.RegisterForwardHook(target, func(_ nn.Module[B], out *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
		return m.apply(out)
	})
	if err != nil {
		return nil, fmt.Errorf("attach mask: %w", err)
	}

	m.handle = handle
	return m, nil
}

// Units returns the number of maskable units.
func (m *Mask[B]) Units() int {
	return m.units
}

// Set enables or disables a single unit.
func (m *Mask[B]) Set(unit int, on bool) {
	if unit < 0 || unit >= m.units {
		panic(fmt.Sprintf("mask: unit %d out of range [0, %d)", unit, m.units))
	}
	if on {
		m.enabled[unit] = 1
	} else {
		m.enabled[unit] = 0
	}
}

// SetAll enables or disables every unit.
func (m *Mask[B]) SetAll(on bool) {
	v := float32(0)
	if on {
		v = 1
	}
	for i := range m.enabled {
		m.enabled[i] = v
	}
}

func (m *Mask[B]) apply(out *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := out.Shape()
	if len(shape) < 2 || shape[1] != m.units {
		panic(fmt.Sprintf("mask: output shape %v does not have %d units on dimension 1", shape, m.units))
	}

	maskShape := make(tensor.Shape, len(shape))
	maskShape[0] = 1
	maskShape[1] = m.units
	for i := 2; i < len(shape); i++ {
		maskShape[i] = 1
	}

	mask := tensor.Zeros[float32](maskShape, m.backend)
	copy(mask.Data(), m.enabled)

	return out.Mul(mask)
}

// Close detaches the hook, restoring the model's original behavior.
func (m *Mask[B]) Close() {
	if m.handle != nil {
		m.handle.Remove()
		m.handle = nil
	}
}
