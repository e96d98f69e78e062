//go:build !nogpu

// Package native implements gpucore.Device on top of gogpu/wgpu/hal.
//
// Every texture is stored as RGBA8Unorm; RGB uploads are expanded with an
// opaque alpha channel. Each texture owns one view and one sampler whose
// filter and address modes follow SetFilter and SetWrap. Renderers fetch them
// with View and Sampler when building bind groups.
package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texstream/gpucore"
)

// texture is the HAL state behind one TextureID.
type texture struct {
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler

	width  int
	height int

	minFilter gpucore.Filter
	magFilter gpucore.Filter
	wrapS     gpucore.Wrap
	wrapT     gpucore.Wrap
}

// Device implements gpucore.Device using gogpu/wgpu/hal directly.
//
// Thread Safety: like every gpucore.Device, Device expects calls from the
// goroutine that owns the GPU context. View, Sampler and Len may be called
// from any goroutine.
type Device struct {
	mu       sync.RWMutex
	device   hal.Device
	queue    hal.Queue
	textures map[gpucore.TextureID]*texture
	bound    gpucore.TextureID

	nextID atomic.Uint64

	// release tears down a device this package opened itself.
	release func()
}

// New wraps an existing HAL device and queue. The caller keeps ownership of
// both; Close only destroys the textures created through this Device.
func New(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Device{
		device:   device,
		queue:    queue,
		textures: make(map[gpucore.TextureID]*texture),
	}, nil
}

// NewFromProvider shares the device of a host application (for example a
// gogpu window). The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return New(device, queue)
}

// CreateTexture allocates a texture name. GPU memory is allocated by Upload,
// once the size is known.
func (d *Device) CreateTexture() (gpucore.TextureID, error) {
	id := gpucore.TextureID(d.nextID.Add(1))

	d.mu.Lock()
	d.textures[id] = &texture{
		minFilter: gpucore.FilterLinear,
		magFilter: gpucore.FilterLinear,
		wrapS:     gpucore.WrapClampToEdge,
		wrapT:     gpucore.WrapClampToEdge,
	}
	d.mu.Unlock()
	return id, nil
}

// BindTexture selects id as the current texture.
func (d *Device) BindTexture(id gpucore.TextureID) {
	d.mu.Lock()
	d.bound = id
	d.mu.Unlock()
}

// Bound returns the current texture.
func (d *Device) Bound() gpucore.TextureID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bound
}

// SetFilter sets the sampler filters of id.
func (d *Device) SetFilter(id gpucore.TextureID, minFilter, magFilter gpucore.Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.textures[id]
	if !ok {
		return
	}
	t.minFilter, t.magFilter = minFilter, magFilter
	d.refreshSampler(id, t)
}

// SetWrap sets the sampler address modes of id.
func (d *Device) SetWrap(id gpucore.TextureID, s, t gpucore.Wrap) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, ok := d.textures[id]
	if !ok {
		return
	}
	tex.wrapS, tex.wrapT = s, t
	d.refreshSampler(id, tex)
}

// refreshSampler rebuilds the sampler of an uploaded texture after its
// parameters changed. Caller must hold d.mu.
func (d *Device) refreshSampler(id gpucore.TextureID, t *texture) {
	if t.sampler == nil {
		return
	}
	sampler, err := d.createSampler(id, t)
	if err != nil {
		// Keep the old sampler; the next Upload retries.
		return
	}
	d.device.DestroySampler(t.sampler)
	t.sampler = sampler
}

// Upload allocates GPU storage for id and writes pixels into it.
func (d *Device) Upload(id gpucore.TextureID, width, height int, format gpucore.Format, pixels []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if want := width * height * format.Channels(); len(pixels) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(pixels), want)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	if t.tex != nil && (t.width != width || t.height != height) {
		d.destroy(t)
	}

	if t.tex == nil {
		if err := d.allocate(id, t, width, height); err != nil {
			return err
		}
	}

	data := pixels
	if format == gpucore.FormatRGB {
		data = rgbToRGBA(pixels, width, height)
	}

	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width * 4),
			RowsPerImage: uint32(height),
		},
		&hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	)
	return nil
}

// allocate creates the texture, view and sampler of t.
// On error nothing is left allocated. Caller must hold d.mu.
func (d *Device) allocate(id gpucore.TextureID, t *texture, width, height int) error {
	label := fmt.Sprintf("texstream-%d", id)

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create texture %d: %w", id, err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "-view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("create texture view %d: %w", id, err)
	}

	t.tex, t.view = tex, view
	t.width, t.height = width, height

	sampler, err := d.createSampler(id, t)
	if err != nil {
		d.destroy(t)
		return err
	}
	t.sampler = sampler
	return nil
}

// createSampler builds a sampler from the recorded parameters of t.
func (d *Device) createSampler(id gpucore.TextureID, t *texture) (hal.Sampler, error) {
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        fmt.Sprintf("texstream-%d-sampler", id),
		AddressModeU: convertWrap(t.wrapS),
		AddressModeV: convertWrap(t.wrapT),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    convertFilter(t.magFilter),
		MinFilter:    convertFilter(t.minFilter),
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %d: %w", id, err)
	}
	return sampler, nil
}

// destroy releases the HAL objects of t. Caller must hold d.mu.
func (d *Device) destroy(t *texture) {
	if t.sampler != nil {
		d.device.DestroySampler(t.sampler)
		t.sampler = nil
	}
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width, t.height = 0, 0
}

// DeleteTextures releases every texture in ids. Unknown IDs are ignored.
func (d *Device) DeleteTextures(ids []gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		t, ok := d.textures[id]
		if !ok {
			continue
		}
		d.destroy(t)
		delete(d.textures, id)
		if d.bound == id {
			d.bound = gpucore.InvalidID
		}
	}
}

// View returns the texture view of an uploaded texture.
func (d *Device) View(id gpucore.TextureID) (hal.TextureView, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.textures[id]
	if !ok || t.view == nil {
		return nil, false
	}
	return t.view, true
}

// Sampler returns the sampler of an uploaded texture.
func (d *Device) Sampler(id gpucore.TextureID) (hal.Sampler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.textures[id]
	if !ok || t.sampler == nil {
		return nil, false
	}
	return t.sampler, true
}

// Len returns the number of live texture names.
func (d *Device) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.textures)
}

// Close destroys every texture still alive and, for devices opened by
// OpenNoop, the device itself. The Device must not be used afterwards.
func (d *Device) Close() error {
	d.mu.Lock()
	for id, t := range d.textures {
		d.destroy(t)
		delete(d.textures, id)
	}
	d.bound = gpucore.InvalidID
	release := d.release
	d.release = nil
	d.mu.Unlock()

	if release != nil {
		release()
	}
	return nil
}

// convertFilter maps a gpucore filter to its HAL equivalent.
func convertFilter(f gpucore.Filter) gputypes.FilterMode {
	if f == gpucore.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

// convertWrap maps a gpucore wrap mode to its HAL equivalent.
func convertWrap(w gpucore.Wrap) gputypes.AddressMode {
	switch w {
	case gpucore.WrapRepeat:
		return gputypes.AddressModeRepeat
	case gpucore.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

// rgbToRGBA converts 3-byte-per-pixel RGB data to 4-byte-per-pixel RGBA,
// setting alpha to 255 for every pixel.
func rgbToRGBA(rgb []byte, width, height int) []byte {
	pixelCount := width * height
	rgba := make([]byte, pixelCount*4)
	for i := 0; i < pixelCount; i++ {
		srcOff := i * 3
		dstOff := i * 4
		rgba[dstOff+0] = rgb[srcOff+0]
		rgba[dstOff+1] = rgb[srcOff+1]
		rgba[dstOff+2] = rgb[srcOff+2]
		rgba[dstOff+3] = 255
	}
	return rgba
}
