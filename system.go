package texstream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/texstream/gpucore"
	"github.com/gogpu/texstream/internal/cache"
	"github.com/gogpu/texstream/internal/decode"
	"github.com/gogpu/texstream/internal/parallel"
	"github.com/gogpu/texstream/internal/trash"
	"github.com/gogpu/texstream/internal/upload"
)

// System loads image assets into GPU textures.
//
// Decoding runs on the calling goroutine (RequestTexture, Load) or on a
// background worker (RequestTextureAsync). GPU work happens only inside
// ServicePendingUploads and ReclaimDestroyed, which must be called from the
// goroutine that owns the GPU context, typically once per frame:
//
//	for running {
//		sys.ServicePendingUploads()
//		sys.ReclaimDestroyed()
//		render()
//	}
//
// Blocking requests wait for that goroutine, so they must be made from
// other goroutines. All other methods are safe for concurrent use.
type System struct {
	dev      gpucore.Device
	decoder  *decode.Decoder
	queue    *upload.Queue
	registry *cache.Cache[string, gpucore.Texture]
	workers  *parallel.WorkerPool
	bin      *trash.Bin
	wrap     gpucore.Wrap

	// orphans holds textures displaced from the registry by a racing load.
	// They are destroyed with the next InvalidateAll.
	orphanMu sync.Mutex
	orphans  []gpucore.TextureID

	invalidating atomic.Bool
	closed       atomic.Bool

	decodeFailures atomic.Uint64
	invalidations  atomic.Uint64
}

// Stats is a snapshot of System counters.
type Stats struct {
	// Cached is the number of registry entries.
	Cached int
	// Hits and Misses count registry lookups.
	Hits   uint64
	Misses uint64
	// QueuedDecodes is the number of decode jobs waiting for a worker.
	QueuedDecodes int
	// QueuedUploads is the number of decoded images waiting for the GPU.
	QueuedUploads int
	// Uploaded is the total number of textures created.
	Uploaded uint64
	// DecodeFailures is the total number of failed decodes.
	DecodeFailures uint64
	// Orphans is the number of displaced textures awaiting InvalidateAll.
	Orphans int
	// PendingDestroy is the number of textures waiting for ReclaimDestroyed.
	PendingDestroy int
	// Destroyed is the total number of textures deleted.
	Destroyed uint64
	// Invalidations is the number of InvalidateAll calls that did work.
	Invalidations uint64
	// Workers is the number of live decode workers.
	Workers int
}

// New creates a System that uploads to dev and starts its decode workers.
func New(dev gpucore.Device, opts ...Option) *System {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}
	if o.fsys == nil {
		o.fsys = os.DirFS(".")
	}

	var pool *decode.Pool
	if o.poolBuckets > 0 {
		pool = decode.NewPool(o.poolBuckets)
	}
	dec := decode.NewDecoder(o.fsys, pool)
	for _, c := range o.codecs {
		dec.Register(c.ext, c.sniffed, c.fn)
	}

	s := &System{
		dev:      dev,
		decoder:  dec,
		queue:    upload.NewQueue(o.fatal),
		registry: cache.New[string, gpucore.Texture](),
		workers:  parallel.NewWorkerPool(),
		bin:      trash.New(),
		wrap:     o.wrap,
	}
	s.workers.Start(o.workers)
	slogger().Info("texstream: workers started", "workers", s.workers.Workers())
	return s
}

// Close stops the decode workers. Queued decode jobs are dropped and their
// Pending values resolve with ErrCanceled. Requests made after Close fail
// with ErrClosed. Textures stay alive; call InvalidateAll and
// ReclaimDestroyed first to free them.
func (s *System) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.workers.Stop()
	slogger().Info("texstream: workers stopped", "discarded", s.workers.Discarded())
	return nil
}

// RequestTexture returns the texture for path, loading it on a cache miss.
//
// On a miss the image is decoded on the calling goroutine, then the call
// blocks until the GPU goroutine has serviced the upload queue. A failed
// decode is logged and yields the zero Texture. Use Load to get the error.
func (s *System) RequestTexture(path string, quality gpucore.Quality) gpucore.Texture {
	tex, _ := s.Load(path, quality)
	return tex
}

// Load is like RequestTexture but reports why no texture was produced.
func (s *System) Load(path string, quality gpucore.Quality) (gpucore.Texture, error) {
	return s.LoadContext(context.Background(), path, quality)
}

// LoadContext is like Load but stops waiting for the upload when ctx is done.
// The upload itself still completes and the texture is cached.
func (s *System) LoadContext(ctx context.Context, path string, quality gpucore.Quality) (gpucore.Texture, error) {
	if s.closed.Load() {
		return gpucore.Texture{}, ErrClosed
	}
	key := cache.Key(path)
	if key == "" {
		return gpucore.Texture{}, ErrEmptyPath
	}
	if tex, ok := s.lookup(key); ok {
		return tex, nil
	}

	buf, err := s.decode(cache.Path(path))
	if err != nil {
		return gpucore.Texture{}, err
	}

	f := s.queue.Enqueue(buf, quality, s.wrap)
	tex, err := f.WaitContext(ctx)
	if err != nil {
		go func() { s.insert(key, f.Wait()) }()
		return gpucore.Texture{}, err
	}
	if !tex.Valid() {
		return gpucore.Texture{}, fmt.Errorf("%w: %s", ErrUploadFailed, path)
	}
	return s.insert(key, tex), nil
}

// RequestTextureAsync starts loading path and returns immediately.
//
// A cache hit returns an already resolved Pending. On a miss the decode runs
// on a worker; once the GPU goroutine has uploaded the image, the texture is
// cached and the Pending resolves. Concurrent requests for the same uncached
// path each load it; the registry keeps the last one.
func (s *System) RequestTextureAsync(path string, quality gpucore.Quality) *Pending {
	if s.closed.Load() {
		p := newPending(path)
		p.resolve(gpucore.Texture{}, ErrClosed)
		return p
	}
	key := cache.Key(path)
	if key == "" {
		p := newPending(path)
		p.resolve(gpucore.Texture{}, ErrEmptyPath)
		return p
	}
	if tex, ok := s.lookup(key); ok {
		return resolvedPending(path, tex)
	}

	p := newPending(path)
	ok := s.workers.Submit(parallel.Task{
		Run: func() { s.loadAsync(key, cache.Path(path), quality, p) },
		Discard: func() {
			p.resolve(gpucore.Texture{}, fmt.Errorf("%w: %s", ErrCanceled, path))
		},
	})
	if !ok {
		p.resolve(gpucore.Texture{}, ErrClosed)
	}
	return p
}

// loadAsync runs on a worker. It decodes name and enqueues, then hands the
// wait for the GPU goroutine to a continuation so the worker can take the
// next job. The result is cached under key.
func (s *System) loadAsync(key, name string, quality gpucore.Quality, p *Pending) {
	buf, err := s.decode(name)
	if err != nil {
		p.resolve(gpucore.Texture{}, err)
		return
	}

	f := s.queue.Enqueue(buf, quality, s.wrap)
	go func() {
		tex := f.Wait()
		if !tex.Valid() {
			p.resolve(tex, fmt.Errorf("%w: %s", ErrUploadFailed, key))
			return
		}
		p.resolve(s.insert(key, tex), nil)
	}()
}

// LoadOwned decodes and uploads path into a texture the caller owns.
// The texture is not cached; release it with OwnedTexture.Release.
// Like Load, it blocks until the GPU goroutine services the upload queue.
func (s *System) LoadOwned(ctx context.Context, path string, quality gpucore.Quality) (*OwnedTexture, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	name := cache.Path(path)
	if name == "" {
		return nil, ErrEmptyPath
	}
	buf, err := s.decode(name)
	if err != nil {
		return nil, err
	}
	return s.uploadOwned(ctx, name, buf, quality)
}

// LoadOwnedBytes is like LoadOwned for an image already in memory.
// name selects the codec by its extension.
func (s *System) LoadOwnedBytes(ctx context.Context, name string, data []byte, quality gpucore.Quality) (*OwnedTexture, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	buf, err := s.decoder.DecodeBytes(name, data)
	if err != nil {
		s.decodeFailed(name, err)
		return nil, err
	}
	return s.uploadOwned(ctx, name, buf, quality)
}

func (s *System) uploadOwned(ctx context.Context, name string, buf *decode.PixelBuffer, quality gpucore.Quality) (*OwnedTexture, error) {
	f := s.queue.Enqueue(buf, quality, s.wrap)
	tex, err := f.WaitContext(ctx)
	if err != nil {
		// Nobody will own the texture; destroy it once it exists.
		go func() { s.bin.Discard(f.Wait().ID) }()
		return nil, err
	}
	if !tex.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, name)
	}
	return &OwnedTexture{tex: tex, bin: s.bin}, nil
}

// Preload loads paths in parallel and waits until all are cached.
//
// Decodes run on up to Workers goroutines. The first decode error cancels the
// decodes not yet started and is returned once every upload already queued
// has been cached. Preload blocks on the GPU goroutine like Load.
func (s *System) Preload(ctx context.Context, quality gpucore.Quality, paths ...string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.workers.Workers()))

	keys := make([]string, len(paths))
	futures := make([]*upload.Future, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := cache.Key(path)
			if key == "" {
				return ErrEmptyPath
			}
			if _, ok := s.registry.Peek(key); ok {
				return nil
			}
			buf, err := s.decode(cache.Path(path))
			if err != nil {
				return err
			}
			keys[i] = key
			futures[i] = s.queue.Enqueue(buf, quality, s.wrap)
			return nil
		})
	}
	err := g.Wait()

	for i, f := range futures {
		if f == nil {
			continue
		}
		tex, werr := f.WaitContext(ctx)
		if werr != nil {
			go func() { s.insert(keys[i], f.Wait()) }()
			err = errors.Join(err, werr)
			continue
		}
		if !tex.Valid() {
			err = errors.Join(err, fmt.Errorf("%w: %s", ErrUploadFailed, keys[i]))
			continue
		}
		s.insert(keys[i], tex)
	}
	return err
}

// ServicePendingUploads uploads every decoded image waiting in the queue and
// returns how many were processed. GPU goroutine only.
func (s *System) ServicePendingUploads() int {
	return s.queue.Drain(s.dev)
}

// ReclaimDestroyed deletes textures released by InvalidateAll and
// OwnedTexture.Release and returns how many were deleted. GPU goroutine only.
func (s *System) ReclaimDestroyed() int {
	return s.bin.Reclaim(s.dev)
}

// InvalidateAll empties the registry and schedules every cached texture,
// plus any displaced by racing loads, for destruction.
//
// If another invalidation is in progress, or the previous one has not been
// reclaimed yet, InvalidateAll waits for it. On the GPU goroutine, call
// ReclaimDestroyed between two invalidations. Calling it with nothing cached
// does nothing.
func (s *System) InvalidateAll() {
	for !s.invalidating.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
	defer s.invalidating.Store(false)

	texs := s.registry.TakeAll()

	s.orphanMu.Lock()
	orphans := s.orphans
	s.orphans = nil
	s.orphanMu.Unlock()

	if len(texs) == 0 && len(orphans) == 0 {
		return
	}

	ids := make([]gpucore.TextureID, 0, len(texs)+len(orphans))
	for _, t := range texs {
		ids = append(ids, t.ID)
	}
	ids = append(ids, orphans...)

	s.bin.Publish(ids)
	s.invalidations.Add(1)
	slogger().Info("texstream: cache invalidated", "textures", len(texs), "orphans", len(orphans))
}

// Cached returns the registry entry for path without loading it.
func (s *System) Cached(path string) (gpucore.Texture, bool) {
	return s.registry.Peek(cache.Key(path))
}

// Supported reports whether path has an extension the decoder handles.
func (s *System) Supported(path string) bool {
	return s.decoder.Supported(path)
}

// Extensions returns the file extensions the decoder handles, sorted.
func (s *System) Extensions() []string {
	return s.decoder.Extensions()
}

// Stats returns a snapshot of the system counters.
func (s *System) Stats() Stats {
	rs := s.registry.Stats()
	qs := s.queue.Stats()

	s.orphanMu.Lock()
	orphans := len(s.orphans)
	s.orphanMu.Unlock()

	return Stats{
		Cached:         rs.Len,
		Hits:           rs.Hits,
		Misses:         rs.Misses,
		QueuedDecodes:  s.workers.QueuedWork(),
		QueuedUploads:  qs.Pending,
		Uploaded:       qs.Uploaded,
		DecodeFailures: s.decodeFailures.Load(),
		Orphans:        orphans,
		PendingDestroy: s.bin.Pending(),
		Destroyed:      s.bin.Reclaimed(),
		Invalidations:  s.invalidations.Load(),
		Workers:        s.workers.Workers(),
	}
}

// lookup checks the registry and logs hits.
func (s *System) lookup(key string) (gpucore.Texture, bool) {
	tex, ok := s.registry.Get(key)
	if ok {
		slogger().Debug("texstream: cache hit", "name", key, "texture", tex.String())
	}
	return tex, ok
}

// decode reads and decodes the asset at name, logging failures.
func (s *System) decode(name string) (*decode.PixelBuffer, error) {
	buf, err := s.decoder.Decode(name)
	if err != nil {
		s.decodeFailed(name, err)
		return nil, err
	}
	return buf, nil
}

func (s *System) decodeFailed(name string, err error) {
	s.decodeFailures.Add(1)
	slogger().Warn("texstream: decode failed", "name", name, "err", err)
}

// insert caches tex under key and returns it. A texture displaced by a
// racing load is kept as an orphan.
func (s *System) insert(key string, tex gpucore.Texture) gpucore.Texture {
	if !tex.Valid() {
		return tex
	}
	old, replaced := s.registry.Set(key, tex)
	if replaced && old.ID != tex.ID {
		s.orphanMu.Lock()
		s.orphans = append(s.orphans, old.ID)
		s.orphanMu.Unlock()
		slogger().Debug("texstream: duplicate load", "name", key, "displaced", old.String())
	}
	return tex
}
