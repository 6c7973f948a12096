// Package dataset provides minibatch iteration over in-memory tensors.
package dataset

import (
	"fmt"

	"github.com/prune-ml/prune/internal/tensor"
)

// Loader yields (x, y) minibatches from a pair of tensors whose first
// dimension is the sample axis. The final batch may be smaller than
// batchSize; samples are visited in order.
//
//	loader, _ := dataset.New(x, y, 8)
//	for {
//	    xb, yb, ok := loader.Next()
//	    if !ok {
//	        break
//	    }
//	    // ... use xb, yb
//	}
//	loader.Reset()
type Loader[B tensor.Backend] struct {
	x         *tensor.Tensor[float32, B]
	y         *tensor.Tensor[float32, B]
	batchSize int
	pos       int
}

// New creates a Loader over x and y.
// x and y must agree on the number of samples, and batchSize must be
// positive.
func New[B tensor.Backend](x, y *tensor.Tensor[float32, B], batchSize int) (*Loader[B], error) {
	if len(x.Shape()) == 0 || x.Shape()[0] == 0 {
		return nil, fmt.Errorf("loader: x has no samples (shape %v)", x.Shape())
	}
	if len(y.Shape()) == 0 || y.Shape()[0] != x.Shape()[0] {
		return nil, fmt.Errorf("loader: sample count mismatch: x %v vs y %v", x.Shape(), y.Shape())
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("loader: batch size must be positive, got %d", batchSize)
	}

	return &Loader[B]{
		x:         x,
		y:         y,
		batchSize: batchSize,
	}, nil
}

// NumSamples returns the total number of samples.
func (l *Loader[B]) NumSamples() int {
	return l.x.Shape()[0]
}

// Len returns the number of batches per epoch.
func (l *Loader[B]) Len() int {
	n := l.NumSamples()
	return (n + l.batchSize - 1) / l.batchSize
}

// BatchSize returns the configured batch size.
func (l *Loader[B]) BatchSize() int {
	return l.batchSize
}

// Backend returns the backend the tensors are bound to.
func (l *Loader[B]) Backend() B {
	return l.x.Backend()
}

// Device returns the device the data lives on.
func (l *Loader[B]) Device() tensor.Device {
	return l.x.Device()
}

// Reset rewinds the loader to the first batch.
func (l *Loader[B]) Reset() {
	l.pos = 0
}

// Next returns the next (x, y) batch. ok is false when the epoch is
// exhausted; call Reset to start over.
func (l *Loader[B]) Next() (xb, yb *tensor.Tensor[float32, B], ok bool) {
	n := l.NumSamples()
	if l.pos >= n {
		return nil, nil, false
	}

	end := l.pos + l.batchSize
	if end > n {
		end = n
	}

	xb = sliceRows(l.x, l.pos, end)
	yb = sliceRows(l.y, l.pos, end)
	l.pos = end

	return xb, yb, true
}

// sliceRows copies rows [start, end) into a fresh tensor. Row-major layout
// makes the sample range a contiguous block.
func sliceRows[B tensor.Backend](t *tensor.Tensor[float32, B], start, end int) *tensor.Tensor[float32, B] {
	shape := t.Shape()
	rowSize := 1
	for _, dim := range shape[1:] {
		rowSize *= dim
	}

	outShape := shape.Clone()
	outShape[0] = end - start

	out := tensor.Zeros[float32](outShape, t.Backend())
	copy(out.Data(), t.Data()[start*rowSize:end*rowSize])
	return out
}
