package decode

import (
	"math/bits"

	"github.com/gogpu/texstream/gpucore"
)

// PixelBuffer holds decoded pixels padded to power-of-two dimensions.
//
// PixelBuffer is immutable once returned by a Decoder and is safe for
// concurrent read access. Ownership passes to the upload queue, which calls
// Release once the pixels are on the GPU.
type PixelBuffer struct {
	data []byte

	width  int
	height int

	paddedWidth  int
	paddedHeight int

	channels int

	pool *Pool // optional, receives data on Release
}

// Width returns the decoded width in pixels.
func (b *PixelBuffer) Width() int { return b.width }

// Height returns the decoded height in pixels.
func (b *PixelBuffer) Height() int { return b.height }

// PaddedWidth returns the allocated (power-of-two) width in pixels.
func (b *PixelBuffer) PaddedWidth() int { return b.paddedWidth }

// PaddedHeight returns the allocated (power-of-two) height in pixels.
func (b *PixelBuffer) PaddedHeight() int { return b.paddedHeight }

// Channels returns the number of bytes per pixel (3 or 4).
func (b *PixelBuffer) Channels() int { return b.channels }

// Format returns the GPU pixel format matching Channels.
func (b *PixelBuffer) Format() gpucore.Format {
	return gpucore.FormatForChannels(b.channels)
}

// Stride returns the number of bytes per padded row.
func (b *PixelBuffer) Stride() int { return b.paddedWidth * b.channels }

// Pixels returns the padded pixel data. The slice must not be modified.
func (b *PixelBuffer) Pixels() []byte { return b.data }

// Empty reports whether b carries no pixels. A nil buffer is empty.
func (b *PixelBuffer) Empty() bool {
	return b == nil || len(b.data) == 0
}

// Release drops the pixel data, returning it to the owning pool if any.
// Release is called exactly once by the consumer; the buffer is empty after.
func (b *PixelBuffer) Release() {
	if b == nil || b.data == nil {
		return
	}
	if b.pool != nil {
		b.pool.Put(b.data)
	}
	b.data = nil
}

// NextPowerOfTwo returns the smallest power of two >= n.
// Values <= 1 return 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
