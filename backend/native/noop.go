//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/texstream/backend"
)

// OpenNoop opens a device on the wgpu no-op HAL. Every GPU call succeeds
// without doing work, which makes it useful for exercising the full HAL
// upload path in tests and on machines without a GPU.
// Close releases the device and its instance.
func OpenNoop() (*Device, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("native: create noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open noop device: %w", err)
	}

	d, err := New(openDev.Device, openDev.Queue)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.release = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return d, nil
}

func init() {
	backend.Register(backend.BackendNoop, func() (backend.Device, error) {
		d, err := OpenNoop()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
