package backend

import (
	"errors"

	"github.com/gogpu/texstream/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend names.
const (
	// BackendHeadless is the in-memory device from backend/headless.
	BackendHeadless = "headless"

	// BackendNoop is the wgpu no-op HAL device from backend/native.
	BackendNoop = "noop"
)

// Device is a gpucore.Device that owns resources beyond its textures.
type Device interface {
	gpucore.Device

	// Close releases the device. It must not be used afterwards.
	Close() error
}
