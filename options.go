package texstream

import (
	"io/fs"
	"log/slog"
	"os"

	"github.com/gogpu/texstream/gpucore"
	"github.com/gogpu/texstream/internal/decode"
)

// Option configures a System during creation.
// Use functional options to customize System behavior.
//
// Example:
//
//	// Assets from ./assets, 4 decode workers
//	sys := texstream.New(dev, texstream.WithFS(os.DirFS("assets")), texstream.WithWorkers(4))
type Option func(*options)

// DecodeFunc decodes one image container. See WithDecoder.
type DecodeFunc = decode.Func

// codecOption is a decoder registered with WithDecoder.
type codecOption struct {
	ext     string
	sniffed string
	fn      DecodeFunc
}

// options holds optional configuration for System creation.
type options struct {
	workers     int
	fsys        fs.FS
	wrap        gpucore.Wrap
	fatal       func(error)
	logger      *slog.Logger
	codecs      []codecOption
	poolBuckets int
}

// defaultOptions returns the default system options.
func defaultOptions() options {
	return options{
		workers:     0, // GOMAXPROCS
		fsys:        nil,
		wrap:        gpucore.WrapRepeat,
		poolBuckets: 8,
	}
}

// WithWorkers sets the number of decode workers.
// Zero or a negative value uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithFS sets the file system assets are read from.
// The default is the process working directory.
func WithFS(fsys fs.FS) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithAssetRoot reads assets from the directory root on the host file system.
func WithAssetRoot(root string) Option {
	return func(o *options) {
		o.fsys = os.DirFS(root)
	}
}

// WithDefaultWrap sets the wrap mode applied to every uploaded texture.
// The default is gpucore.WrapRepeat.
func WithDefaultWrap(w gpucore.Wrap) Option {
	return func(o *options) {
		o.wrap = w
	}
}

// WithFatalHandler sets the function called when the GPU fails to create or
// fill a texture. The default panics. A handler that returns lets the
// pipeline continue; the affected requests then resolve to the zero Texture
// with ErrUploadFailed.
func WithFatalHandler(fn func(err error)) Option {
	return func(o *options) {
		o.fatal = fn
	}
}

// WithLogger installs l as the package logger, as if by SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDecoder registers fn for files with extension ext, replacing any
// built-in codec for it. sniffed is the extension
// github.com/h2non/filetype reports for valid files of this kind; pass ""
// to skip the content check.
//
// Example:
//
//	sys := texstream.New(dev, texstream.WithDecoder(".jpg", "jpg", jpeg.Decode))
func WithDecoder(ext, sniffed string, fn DecodeFunc) Option {
	return func(o *options) {
		o.codecs = append(o.codecs, codecOption{ext: ext, sniffed: sniffed, fn: fn})
	}
}

// WithBufferPool sets how many pixel buffers of each size class are kept for
// reuse between decodes. Zero disables pooling.
func WithBufferPool(perBucket int) Option {
	return func(o *options) {
		o.poolBuckets = perBucket
	}
}
