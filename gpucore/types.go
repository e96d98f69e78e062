package gpucore

import "fmt"

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID TextureID = 0

// Filter selects texel sampling for minification and magnification.
type Filter uint8

const (
	// FilterNearest samples the closest texel.
	FilterNearest Filter = iota

	// FilterLinear interpolates between neighbouring texels.
	FilterLinear
)

// String returns a human-readable name for the filter.
func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "Nearest"
	case FilterLinear:
		return "Linear"
	default:
		return fmt.Sprintf("Filter(%d)", f)
	}
}

// Wrap selects how texture coordinates outside [0, 1] are resolved.
type Wrap uint8

const (
	// WrapClampToEdge clamps coordinates to the edge texels.
	WrapClampToEdge Wrap = iota

	// WrapRepeat tiles the texture.
	WrapRepeat

	// WrapMirroredRepeat tiles the texture, mirroring every other tile.
	WrapMirroredRepeat
)

// String returns a human-readable name for the wrap mode.
func (w Wrap) String() string {
	switch w {
	case WrapClampToEdge:
		return "ClampToEdge"
	case WrapRepeat:
		return "Repeat"
	case WrapMirroredRepeat:
		return "MirroredRepeat"
	default:
		return fmt.Sprintf("Wrap(%d)", w)
	}
}

// ParseWrap parses a wrap mode name as written in configuration files.
// Accepted names: "clamp", "repeat", "mirror" (and the String forms).
func ParseWrap(s string) (Wrap, error) {
	switch s {
	case "", "clamp", "ClampToEdge":
		return WrapClampToEdge, nil
	case "repeat", "Repeat":
		return WrapRepeat, nil
	case "mirror", "MirroredRepeat":
		return WrapMirroredRepeat, nil
	default:
		return WrapClampToEdge, fmt.Errorf("gpucore: unknown wrap mode %q", s)
	}
}

// Format is the pixel layout of uploaded data. The internal (GPU) format and
// the pixel (client) format are always the same for this pipeline.
type Format uint8

const (
	// FormatRGB is 8-bit RGB, 3 bytes per pixel.
	FormatRGB Format = iota + 3

	// FormatRGBA is 8-bit RGBA, non-premultiplied, 4 bytes per pixel.
	FormatRGBA
)

// FormatForChannels returns the format with the given channel count.
// Anything other than 3 maps to FormatRGBA.
func FormatForChannels(channels int) Format {
	if channels == 3 {
		return FormatRGB
	}
	return FormatRGBA
}

// Channels returns the number of bytes per pixel.
func (f Format) Channels() int {
	return int(f)
}

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

// Quality is the filtering quality requested by a caller.
type Quality uint8

const (
	// QualityNearest requests nearest-neighbour filtering (pixel art, UI).
	QualityNearest Quality = iota

	// QualityLinear requests bilinear filtering.
	QualityLinear
)

// Filters returns the min and mag filters for the quality.
func (q Quality) Filters() (minFilter, magFilter Filter) {
	if q == QualityLinear {
		return FilterLinear, FilterLinear
	}
	return FilterNearest, FilterNearest
}

// String returns a human-readable name for the quality.
func (q Quality) String() string {
	switch q {
	case QualityNearest:
		return "Nearest"
	case QualityLinear:
		return "Linear"
	default:
		return fmt.Sprintf("Quality(%d)", q)
	}
}

// Texture identifies an uploaded texture together with its logical
// (decoded) size and padded (allocated) size.
//
// The zero Texture means "no texture": draw code must treat it as a no-op.
// Texture values are tokens and never own the GPU resource.
type Texture struct {
	ID TextureID

	Width  int
	Height int

	PaddedWidth  int
	PaddedHeight int
}

// Valid reports whether t refers to an uploaded texture.
func (t Texture) Valid() bool {
	return t.ID != InvalidID && t.Width > 0 && t.Height > 0
}

// Size returns the logical width and height.
func (t Texture) Size() (width, height int) {
	return t.Width, t.Height
}

// PaddedSize returns the allocated width and height.
func (t Texture) PaddedSize() (width, height int) {
	return t.PaddedWidth, t.PaddedHeight
}

// UV returns the texture coordinates of the bottom-right corner of the
// logical image inside the padded allocation.
func (t Texture) UV() (u, v float32) {
	if t.PaddedWidth == 0 || t.PaddedHeight == 0 {
		return 0, 0
	}
	return float32(t.Width) / float32(t.PaddedWidth), float32(t.Height) / float32(t.PaddedHeight)
}

// String returns a short description for logs.
func (t Texture) String() string {
	if !t.Valid() {
		return "Texture(none)"
	}
	return fmt.Sprintf("Texture(%d %dx%d pad %dx%d)", t.ID, t.Width, t.Height, t.PaddedWidth, t.PaddedHeight)
}
