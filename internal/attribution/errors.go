package attribution

import "errors"

// Sentinel errors returned by metric constructors and Run.
var (
	// ErrInvalidLayer indicates the target layer is not part of the model
	// or cannot be scored by the chosen metric.
	ErrInvalidLayer = errors.New("invalid layer")

	// ErrInvalidConfiguration indicates a metric was configured with
	// unusable options.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDeviceMismatch indicates the data and the backend live on
	// different devices.
	ErrDeviceMismatch = errors.New("device mismatch")
)
