// Package headless provides a CPU-only gpucore.Device.
//
// The headless device keeps uploaded pixels in memory and records every call,
// which makes it the device of choice for tests, tools and servers that run
// the texture pipeline without a GPU.
package headless

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/texstream/backend"
	"github.com/gogpu/texstream/gpucore"
)

// Headless device errors.
var (
	// ErrUnknownTexture is returned when uploading to a texture that was never
	// created or has been deleted.
	ErrUnknownTexture = errors.New("headless: unknown texture")

	// ErrSizeMismatch is returned when pixel data does not match the size.
	ErrSizeMismatch = errors.New("headless: pixel data does not match size")
)

// Texture is the recorded state of one texture.
type Texture struct {
	Width  int
	Height int
	Format gpucore.Format

	MinFilter gpucore.Filter
	MagFilter gpucore.Filter
	WrapS     gpucore.Wrap
	WrapT     gpucore.Wrap

	Pixels []byte
}

// Calls counts device entry point invocations.
type Calls struct {
	Create int
	Bind   int
	Filter int
	Wrap   int
	Upload int
	Delete int // number of textures passed to DeleteTextures
}

// Device is an in-memory gpucore.Device.
//
// Unlike a real GPU binding, Device is safe for concurrent use, so tests
// can inspect it while the pipeline runs.
type Device struct {
	mu sync.Mutex

	nextID   gpucore.TextureID
	textures map[gpucore.TextureID]*Texture
	bound    gpucore.TextureID

	calls   Calls
	deletes map[gpucore.TextureID]int

	failCreate error
	failUpload error
}

// New creates an empty headless device.
func New() *Device {
	return &Device{
		nextID:   1,
		textures: make(map[gpucore.TextureID]*Texture),
		deletes:  make(map[gpucore.TextureID]int),
	}
}

// FailCreate makes every following CreateTexture return err.
// Pass nil to clear the failure.
func (d *Device) FailCreate(err error) {
	d.mu.Lock()
	d.failCreate = err
	d.mu.Unlock()
}

// FailUpload makes every following Upload return err.
// Pass nil to clear the failure.
func (d *Device) FailUpload(err error) {
	d.mu.Lock()
	d.failUpload = err
	d.mu.Unlock()
}

// CreateTexture allocates a new texture name.
func (d *Device) CreateTexture() (gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls.Create++
	if d.failCreate != nil {
		return gpucore.InvalidID, d.failCreate
	}
	id := d.nextID
	d.nextID++
	d.textures[id] = &Texture{}
	return id, nil
}

// BindTexture records id as the bound texture.
func (d *Device) BindTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls.Bind++
	d.bound = id
}

// SetFilter records the filters of id.
func (d *Device) SetFilter(id gpucore.TextureID, minFilter, magFilter gpucore.Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls.Filter++
	if t, ok := d.textures[id]; ok {
		t.MinFilter = minFilter
		t.MagFilter = magFilter
	}
}

// SetWrap records the wrap modes of id.
func (d *Device) SetWrap(id gpucore.TextureID, s, t gpucore.Wrap) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls.Wrap++
	if tex, ok := d.textures[id]; ok {
		tex.WrapS = s
		tex.WrapT = t
	}
}

// Upload copies pixels into the texture.
func (d *Device) Upload(id gpucore.TextureID, width, height int, format gpucore.Format, pixels []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls.Upload++
	if d.failUpload != nil {
		return d.failUpload
	}
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	if want := width * height * format.Channels(); len(pixels) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(pixels), want)
	}
	t.Width = width
	t.Height = height
	t.Format = format
	t.Pixels = append(t.Pixels[:0], pixels...)
	return nil
}

// DeleteTextures drops every texture in ids.
func (d *Device) DeleteTextures(ids []gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		d.calls.Delete++
		d.deletes[id]++
		delete(d.textures, id)
		if d.bound == id {
			d.bound = gpucore.InvalidID
		}
	}
}

// Texture returns a copy of the recorded state of id.
func (d *Device) Texture(id gpucore.TextureID) (Texture, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.textures[id]
	if !ok {
		return Texture{}, false
	}
	c := *t
	c.Pixels = append([]byte(nil), t.Pixels...)
	return c, true
}

// Bound returns the currently bound texture.
func (d *Device) Bound() gpucore.TextureID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bound
}

// Len returns the number of live textures.
func (d *Device) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// Calls returns the call counters.
func (d *Device) Calls() Calls {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// DeleteCount returns how many times id was passed to DeleteTextures.
// Anything above 1 is a double free.
func (d *Device) DeleteCount(id gpucore.TextureID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deletes[id]
}

// MaxDeleteCount returns the highest DeleteCount across all textures.
func (d *Device) MaxDeleteCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	maxCount := 0
	for _, n := range d.deletes {
		maxCount = max(maxCount, n)
	}
	return maxCount
}

// Close is a no-op; it lets Device satisfy backend.Device.
func (d *Device) Close() error { return nil }

func init() {
	backend.Register(backend.BackendHeadless, func() (backend.Device, error) {
		return New(), nil
	})
}
