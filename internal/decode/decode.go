package decode

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Decode errors.
var (
	// ErrNotFound is returned when the asset does not exist.
	ErrNotFound = errors.New("decode: file not found")

	// ErrUnsupportedExtension is returned when no codec handles the extension.
	ErrUnsupportedExtension = errors.New("decode: unsupported extension")

	// ErrExtensionMismatch is returned when the file content does not match
	// its extension.
	ErrExtensionMismatch = errors.New("decode: content does not match extension")

	// ErrMalformed is returned for a corrupt or truncated codec stream.
	ErrMalformed = errors.New("decode: malformed image stream")

	// ErrDecompress is returned when the compressed pixel stream fails to
	// inflate.
	ErrDecompress = errors.New("decode: decompression failed")

	// ErrEmptyData is returned when the asset has no bytes.
	ErrEmptyData = errors.New("decode: empty data")
)

// IsDecodeError reports whether err is one of the decode failures above.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnsupportedExtension) ||
		errors.Is(err, ErrExtensionMismatch) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrDecompress) ||
		errors.Is(err, ErrEmptyData)
}

// sniffLen is the number of header bytes filetype needs to identify images.
const sniffLen = 262

// Func decodes one image container from r.
type Func func(r io.Reader) (image.Image, error)

// codec decodes one image container format.
type codec struct {
	// sniffed is the extension filetype reports for this container.
	// Empty skips the content check.
	sniffed string
	decode  Func
}

// codecs maps lower-case file extensions to decoders.
var codecs = map[string]codec{
	".png":  {sniffed: "png", decode: png.Decode},
	".bmp":  {sniffed: "bmp", decode: bmp.Decode},
	".tif":  {sniffed: "tif", decode: tiff.Decode},
	".tiff": {sniffed: "tif", decode: tiff.Decode},
	".webp": {sniffed: "webp", decode: webp.Decode},
}

// Decoder reads image assets from a file system and produces padded pixel
// buffers.
//
// Decoder is safe for concurrent use.
type Decoder struct {
	fsys   fs.FS
	pool   *Pool
	codecs map[string]codec
}

// NewDecoder creates a decoder reading from fsys.
// pool may be nil; when set, padded storage is drawn from and returned to it.
func NewDecoder(fsys fs.FS, pool *Pool) *Decoder {
	d := &Decoder{
		fsys:   fsys,
		pool:   pool,
		codecs: make(map[string]codec, len(codecs)),
	}
	for ext, c := range codecs {
		d.codecs[ext] = c
	}
	return d
}

// Register adds or replaces the codec for ext (with or without the leading
// dot). sniffed is the extension filetype reports for the container; pass ""
// to skip the content check. Register must be called before the decoder is
// shared between goroutines.
func (d *Decoder) Register(ext, sniffed string, fn Func) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	d.codecs[ext] = codec{sniffed: sniffed, decode: fn}
}

// Supported reports whether name has an extension this decoder handles.
func (d *Decoder) Supported(name string) bool {
	_, ok := d.codecs[strings.ToLower(path.Ext(name))]
	return ok
}

// Extensions returns the extensions this decoder handles, including the
// leading dot, in sorted order.
func (d *Decoder) Extensions() []string {
	exts := make([]string, 0, len(d.codecs))
	for ext := range d.codecs {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Decode reads and decodes the named asset.
//
// The returned error wraps one of ErrNotFound, ErrUnsupportedExtension,
// ErrExtensionMismatch, ErrMalformed, ErrDecompress or ErrEmptyData.
func (d *Decoder) Decode(name string) (*PixelBuffer, error) {
	if !d.Supported(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, name)
	}

	data, err := fs.ReadFile(d.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("decode: read %s: %w", name, err)
	}

	return d.DecodeBytes(name, data)
}

// DecodeBytes decodes an in-memory asset. name is only used to select the
// codec by extension and for error messages.
func (d *Decoder) DecodeBytes(name string, data []byte) (*PixelBuffer, error) {
	c, ok := d.codecs[strings.ToLower(path.Ext(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, name)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, name)
	}

	if c.sniffed != "" {
		head := data
		if len(head) > sniffLen {
			head = head[:sniffLen]
		}
		kind, _ := filetype.Match(head)
		if kind == filetype.Unknown || kind.Extension != c.sniffed {
			return nil, fmt.Errorf("%w: %s looks like %q", ErrExtensionMismatch, name, kind.Extension)
		}
	}

	img, err := c.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", classify(err), name, err)
	}

	buf := Pad(img, channelsOf(img), d.pool)
	if buf.Empty() {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrMalformed, name)
	}

	slogger().Debug("decode: decoded",
		"name", name,
		"width", buf.Width(), "height", buf.Height(),
		"padded", fmt.Sprintf("%dx%d", buf.PaddedWidth(), buf.PaddedHeight()),
		"channels", buf.Channels())
	return buf, nil
}

// classify maps a codec error to ErrDecompress or ErrMalformed.
func classify(err error) error {
	var corrupt flate.CorruptInputError
	switch {
	case errors.Is(err, zlib.ErrHeader),
		errors.Is(err, zlib.ErrChecksum),
		errors.Is(err, zlib.ErrDictionary),
		errors.As(err, &corrupt):
		return ErrDecompress
	default:
		return ErrMalformed
	}
}
