// Copyright 2026 Prune ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides batched iteration over evaluation data.
//
// Example:
//
//	loader, err := dataset.New(x, y, 32)
//	for {
//	    xb, yb, ok := loader.Next()
//	    if !ok {
//	        break
//	    }
//	    // use batch
//	}
package dataset

import (
	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/tensor"
)

// Loader yields aligned (x, y) batches from an in-memory dataset.
// The final batch may be smaller when the sample count is not a
// multiple of the batch size.
type Loader[B tensor.Backend] = dataset.Loader[B]

// New creates a loader over x and y, which must agree on sample count.
func New[B tensor.Backend](x, y *tensor.Tensor[float32, B], batchSize int) (*Loader[B], error) {
	return dataset.New(x, y, batchSize)
}
