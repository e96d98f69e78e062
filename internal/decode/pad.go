package decode

import (
	"image"
	"image/color"
)

// Pad copies img into a zero-filled buffer whose dimensions are rounded up to
// the next power of two. channels must be 3 or 4.
//
// Rows are copied directly when the source layout already matches the
// destination (non-premultiplied RGBA into 4 channels). Otherwise every pixel
// is converted to non-premultiplied RGBA and the first channels bytes are
// written.
func Pad(img image.Image, channels int, pool *Pool) *PixelBuffer {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return &PixelBuffer{}
	}
	if channels != 3 {
		channels = 4
	}

	pw := NextPowerOfTwo(width)
	ph := NextPowerOfTwo(height)
	n := pw * ph * channels

	var data []byte
	if pool != nil {
		data = pool.Get(n)
	} else {
		data = make([]byte, n)
	}

	buf := &PixelBuffer{
		data:         data,
		width:        width,
		height:       height,
		paddedWidth:  pw,
		paddedHeight: ph,
		channels:     channels,
		pool:         pool,
	}
	stride := buf.Stride()

	// Fast path: NRGBA rows are already in upload layout.
	if nrgba, ok := img.(*image.NRGBA); ok && channels == 4 {
		rowBytes := width * 4
		for y := range height {
			src := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(data[y*stride:y*stride+rowBytes], nrgba.Pix[src:src+rowBytes])
		}
		return buf
	}

	// Opaque RGBA (PNG truecolor) into 3 channels: drop alpha per pixel.
	if rgba, ok := img.(*image.RGBA); ok && channels == 3 {
		for y := range height {
			src := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			dst := y * stride
			for x := range width {
				s := src + x*4
				d := dst + x*3
				data[d] = rgba.Pix[s]
				data[d+1] = rgba.Pix[s+1]
				data[d+2] = rgba.Pix[s+2]
			}
		}
		return buf
	}

	// Generic slow path for any image type.
	for y := range height {
		dst := y * stride
		for x := range width {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			d := dst + x*channels
			data[d] = c.R
			data[d+1] = c.G
			data[d+2] = c.B
			if channels == 4 {
				data[d+3] = c.A
			}
		}
	}
	return buf
}

// channelsOf picks 3 channels for images with an opaque colour model and 4
// otherwise. An opaque model whose pixels still carry alpha (TIFF associated
// alpha, PNG tRNS) is promoted to 4 channels so alpha is never dropped.
func channelsOf(img image.Image) int {
	ch := channelsFor(img.ColorModel())
	if ch == 3 {
		if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
			return 4
		}
	}
	return ch
}

func channelsFor(m color.Model) int {
	switch m {
	case color.RGBAModel, color.RGBA64Model,
		color.GrayModel, color.Gray16Model,
		color.YCbCrModel, color.CMYKModel:
		return 3
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}
	return 4
}
