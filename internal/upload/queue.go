package upload

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/texstream/gpucore"
	"github.com/gogpu/texstream/internal/decode"
)

// ErrInvalidTexture is reported when a device hands out the null texture ID.
var ErrInvalidTexture = errors.New("upload: device returned invalid texture id")

// Recipe is a decoded pixel buffer plus the GPU parameters it is uploaded
// with. A Recipe lives from Enqueue until the drain that uploads it.
type Recipe struct {
	// PaddedWidth and PaddedHeight are the allocated texture size.
	PaddedWidth  int
	PaddedHeight int

	Format  gpucore.Format
	Quality gpucore.Quality
	Wrap    gpucore.Wrap

	// Pixels is owned by the recipe and released after upload.
	Pixels *decode.PixelBuffer

	promise *Promise
}

// Stats contains upload queue counters.
type Stats struct {
	// Pending is the number of recipes waiting for the next drain.
	Pending int
	// Enqueued is the total number of recipes ever enqueued.
	Enqueued uint64
	// Uploaded is the total number of textures created by drains.
	Uploaded uint64
}

// FatalFunc is called when texture creation fails. The GPU context is
// assumed unusable, so the default handler panics.
type FatalFunc func(err error)

// DefaultFatal panics with err.
func DefaultFatal(err error) {
	panic(err)
}

// Queue is the mailbox between producers and the GPU goroutine.
//
// Enqueue is safe for concurrent use. Drain must only be called from the
// goroutine that owns the GPU context.
type Queue struct {
	mu      sync.Mutex
	pending []*Recipe
	spare   []*Recipe // drained batch storage, reused by the next swap

	fatal FatalFunc

	enqueued atomic.Uint64
	uploaded atomic.Uint64
}

// NewQueue creates an empty queue. A nil fatal uses DefaultFatal.
func NewQueue(fatal FatalFunc) *Queue {
	if fatal == nil {
		fatal = DefaultFatal
	}
	return &Queue{fatal: fatal}
}

// Enqueue takes ownership of buf and queues it for upload.
// It returns immediately; the returned future is fulfilled by a later Drain.
// An empty buf needs no GPU work and yields an already-fulfilled future
// holding the zero Texture.
func (q *Queue) Enqueue(buf *decode.PixelBuffer, quality gpucore.Quality, wrap gpucore.Wrap) *Future {
	if buf.Empty() {
		return Resolved(gpucore.Texture{})
	}

	p, f := NewPromise()
	r := &Recipe{
		PaddedWidth:  buf.PaddedWidth(),
		PaddedHeight: buf.PaddedHeight(),
		Format:       buf.Format(),
		Quality:      quality,
		Wrap:         wrap,
		Pixels:       buf,
		promise:      p,
	}

	q.mu.Lock()
	q.pending = append(q.pending, r)
	q.mu.Unlock()

	q.enqueued.Add(1)
	return f
}

// Drain uploads every queued recipe and fulfils its future.
// It returns the number of recipes drained.
//
// The pending batch is swapped out under the mutex; GPU calls run without
// holding it, so producers are never blocked by uploads.
func (q *Queue) Drain(dev gpucore.Device) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = q.spare[:0]
	q.spare = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		q.recycle(batch)
		return 0
	}

	for i, r := range batch {
		tex, err := uploadRecipe(dev, r)
		if err != nil {
			slogger().Error("upload: texture creation failed", "err", err)
			q.fatal(fmt.Errorf("upload: %w", err))
			// A non-panicking handler still gets every waiter released.
			tex = gpucore.Texture{}
		} else {
			q.uploaded.Add(1)
		}
		r.Pixels.Release()
		r.promise.Fulfill(tex)
		batch[i] = nil
	}

	n := len(batch)
	q.recycle(batch)
	return n
}

// recycle keeps the drained slice for the next swap.
func (q *Queue) recycle(batch []*Recipe) {
	q.mu.Lock()
	if q.spare == nil {
		q.spare = batch[:0]
	}
	q.mu.Unlock()
}

// uploadRecipe issues the GPU calls for one recipe.
func uploadRecipe(dev gpucore.Device, r *Recipe) (gpucore.Texture, error) {
	id, err := dev.CreateTexture()
	if err != nil {
		return gpucore.Texture{}, fmt.Errorf("create texture: %w", err)
	}
	if id == gpucore.InvalidID {
		return gpucore.Texture{}, ErrInvalidTexture
	}

	dev.BindTexture(id)
	minFilter, magFilter := r.Quality.Filters()
	dev.SetFilter(id, minFilter, magFilter)
	dev.SetWrap(id, r.Wrap, r.Wrap)

	if err := dev.Upload(id, r.PaddedWidth, r.PaddedHeight, r.Format, r.Pixels.Pixels()); err != nil {
		dev.DeleteTextures([]gpucore.TextureID{id})
		return gpucore.Texture{}, fmt.Errorf("upload texture %d: %w", id, err)
	}

	tex := gpucore.Texture{
		ID:           id,
		Width:        r.Pixels.Width(),
		Height:       r.Pixels.Height(),
		PaddedWidth:  r.PaddedWidth,
		PaddedHeight: r.PaddedHeight,
	}
	slogger().Debug("upload: texture ready",
		"texture", tex.String(),
		"format", r.Format.String(),
		"quality", r.Quality.String(),
		"wrap", r.Wrap.String())
	return tex, nil
}

// Len returns the number of recipes waiting for the next drain.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stats returns queue counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Pending:  q.Len(),
		Enqueued: q.enqueued.Load(),
		Uploaded: q.uploaded.Load(),
	}
}
