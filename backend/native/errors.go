package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNilDevice is returned when no HAL device or queue is supplied.
	ErrNilDevice = errors.New("native: nil HAL device or queue")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("native: provider does not expose HAL device")

	// ErrNoAdapter is returned when the HAL instance reports no adapter.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrUnknownTexture is returned for IDs this device did not create or
	// has already deleted.
	ErrUnknownTexture = errors.New("native: unknown texture")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("native: invalid dimensions")

	// ErrSizeMismatch is returned when pixel data does not match the size.
	ErrSizeMismatch = errors.New("native: pixel data does not match size")
)
