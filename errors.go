package texstream

import "errors"

// Errors returned by System.
var (
	// ErrEmptyPath is returned when a request names no asset.
	ErrEmptyPath = errors.New("texstream: empty asset path")

	// ErrClosed is returned for requests made after Close.
	ErrClosed = errors.New("texstream: system closed")

	// ErrCanceled is reported by a Pending whose decode job was dropped
	// because the worker pool stopped before picking it up.
	ErrCanceled = errors.New("texstream: request canceled")

	// ErrUploadFailed is returned when the GPU upload produced no texture.
	// It is only observable with a fatal handler that does not panic.
	ErrUploadFailed = errors.New("texstream: upload failed")
)
