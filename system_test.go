package texstream

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gogpu/texstream/backend/headless"
	"github.com/gogpu/texstream/gpucore"
	"github.com/gogpu/texstream/internal/decode"
)

// =============================================================================
// Helpers
// =============================================================================

// encodePNG encodes img as PNG bytes.
func encodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// rgbImage returns an opaque image; png.Encode writes it as truecolor RGB.
func rgbImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(10 + x), G: uint8(20 + y), B: 30, A: 255})
		}
	}
	return img
}

// countingFS counts how often each file is opened.
// It does not implement fs.ReadFileFS, so every read goes through Open.
type countingFS struct {
	files fstest.MapFS

	mu    sync.Mutex
	opens map[string]int
}

func newCountingFS(files fstest.MapFS) *countingFS {
	return &countingFS{files: files, opens: make(map[string]int)}
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.mu.Lock()
	c.opens[name]++
	c.mu.Unlock()
	return c.files.Open(name)
}

func (c *countingFS) Opens(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[name]
}

// newTestSystem creates a system over a headless device and closes it when
// the test ends.
func newTestSystem(t *testing.T, fsys fs.FS, opts ...Option) (*System, *headless.Device) {
	t.Helper()
	dev := headless.New()
	sys := New(dev, append([]Option{WithFS(fsys), WithWorkers(2)}, opts...)...)
	t.Cleanup(func() { sys.Close() })
	return sys, dev
}

// serveGPU plays the GPU goroutine until the test ends.
func serveGPU(t *testing.T, sys *System) {
	t.Helper()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			sys.ServicePendingUploads()
			time.Sleep(time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		close(stop)
		<-done
	})
}

// waitDrained services the upload queue on the test goroutine until every
// pending is resolved.
func waitDrained(t *testing.T, sys *System, ps ...*Pending) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for _, p := range ps {
		for !p.Ready() {
			if time.Now().After(deadline) {
				t.Fatalf("pending %q not resolved in time", p.Name())
			}
			sys.ServicePendingUploads()
			time.Sleep(time.Millisecond)
		}
	}
}

// =============================================================================
// Blocking requests
// =============================================================================

func TestSystem_RequestTextureNearest(t *testing.T) {
	fsys := fstest.MapFS{"sprite.png": {Data: encodePNG(t, rgbImage(10, 7))}}
	sys, dev := newTestSystem(t, fsys)

	got := make(chan gpucore.Texture, 1)
	go func() { got <- sys.RequestTexture("sprite.png", gpucore.QualityNearest) }()

	// Exactly one drain is needed once the recipe is queued.
	deadline := time.Now().Add(5 * time.Second)
	for sys.Stats().QueuedUploads == 0 {
		if time.Now().After(deadline) {
			t.Fatal("recipe never queued")
		}
		time.Sleep(time.Millisecond)
	}
	if n := sys.ServicePendingUploads(); n != 1 {
		t.Fatalf("ServicePendingUploads() = %d, want 1", n)
	}
	tex := <-got

	if w, h := tex.Size(); w != 10 || h != 7 {
		t.Errorf("Size() = (%d, %d), want (10, 7)", w, h)
	}
	if w, h := tex.PaddedSize(); w != 16 || h != 8 {
		t.Errorf("PaddedSize() = (%d, %d), want (16, 8)", w, h)
	}

	dt, ok := dev.Texture(tex.ID)
	if !ok {
		t.Fatal("texture missing on device")
	}
	if dt.Format != gpucore.FormatRGB {
		t.Errorf("Format = %v, want RGB", dt.Format)
	}
	if dt.MinFilter != gpucore.FilterNearest || dt.MagFilter != gpucore.FilterNearest {
		t.Errorf("filters = %v/%v, want Nearest", dt.MinFilter, dt.MagFilter)
	}
	if dt.WrapS != gpucore.WrapRepeat {
		t.Errorf("WrapS = %v, want default Repeat", dt.WrapS)
	}
	if len(dt.Pixels) != 16*8*3 {
		t.Fatalf("len(Pixels) = %d, want %d", len(dt.Pixels), 16*8*3)
	}
	// Pixel (9, 6) is the last image pixel; (10, 6) is margin.
	off := (6*16 + 9) * 3
	if dt.Pixels[off] != 19 || dt.Pixels[off+1] != 26 || dt.Pixels[off+2] != 30 {
		t.Errorf("pixel (9,6) = %v, want [19 26 30]", dt.Pixels[off:off+3])
	}
	if m := dt.Pixels[off+3 : off+6]; m[0] != 0 || m[1] != 0 || m[2] != 0 {
		t.Errorf("margin pixel (10,6) = %v, want zero", m)
	}
}

func TestSystem_CacheHitSkipsDecode(t *testing.T) {
	fsys := newCountingFS(fstest.MapFS{"a.png": {Data: encodePNG(t, rgbImage(4, 4))}})
	sys, dev := newTestSystem(t, fsys)
	serveGPU(t, sys)

	first := sys.RequestTexture("a.png", gpucore.QualityLinear)
	second := sys.RequestTexture("a.png", gpucore.QualityLinear)

	if !first.Valid() {
		t.Fatal("first request returned no texture")
	}
	if second != first {
		t.Errorf("cache hit = %v, want %v", second, first)
	}
	if n := fsys.Opens("a.png"); n != 1 {
		t.Errorf("a.png opened %d times, want 1", n)
	}
	if c := dev.Calls().Create; c != 1 {
		t.Errorf("CreateTexture calls = %d, want 1", c)
	}

	s := sys.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Cached != 1 {
		t.Errorf("Stats() hits/misses/cached = %d/%d/%d, want 1/1/1", s.Hits, s.Misses, s.Cached)
	}

	// An async request for a cached name is resolved on return.
	p := sys.RequestTextureAsync("a.png", gpucore.QualityLinear)
	if !p.Ready() {
		t.Fatal("async cache hit not ready")
	}
	if tex, _ := p.Texture(); tex != first {
		t.Errorf("async hit = %v, want %v", tex, first)
	}
}

func TestSystem_NameNormalization(t *testing.T) {
	fsys := newCountingFS(fstest.MapFS{"ui/a.png": {Data: encodePNG(t, rgbImage(2, 2))}})
	sys, _ := newTestSystem(t, fsys)
	serveGPU(t, sys)

	a := sys.RequestTexture("ui/a.png", gpucore.QualityLinear)
	b := sys.RequestTexture("ui/./a.png", gpucore.QualityLinear)
	c := sys.RequestTexture(`ui\a.png`, gpucore.QualityLinear)

	if !a.Valid() || a != b || a != c {
		t.Errorf("textures = %v, %v, %v, want one shared texture", a, b, c)
	}
	if n := fsys.Opens("ui/a.png"); n != 1 {
		t.Errorf("ui/a.png opened %d times, want 1", n)
	}
}

func TestSystem_DecomposedFileName(t *testing.T) {
	decomposed := "U\u0308ber.png"
	composed := "\u00dcber.png"
	fsys := newCountingFS(fstest.MapFS{decomposed: {Data: encodePNG(t, rgbImage(10, 7))}})
	sys, _ := newTestSystem(t, fsys)
	serveGPU(t, sys)

	tex, err := sys.Load(decomposed, gpucore.QualityNearest)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", decomposed, err)
	}
	if w, h := tex.Size(); w != 10 || h != 7 {
		t.Errorf("Size() = (%d, %d), want (10, 7)", w, h)
	}

	// The composed spelling shares the registry entry without reading again.
	if got := sys.RequestTexture(composed, gpucore.QualityNearest); got != tex {
		t.Errorf("RequestTexture(%q) = %v, want %v", composed, got, tex)
	}
	if n := fsys.Opens(decomposed); n != 1 {
		t.Errorf("%q opened %d times, want 1", decomposed, n)
	}

	p := sys.RequestTextureAsync("dir/../"+decomposed, gpucore.QualityNearest)
	if got, _ := p.Texture(); got != tex {
		t.Errorf("async request = %v, want cached %v", got, tex)
	}

	owned, err := sys.LoadOwned(context.Background(), decomposed, gpucore.QualityNearest)
	if err != nil {
		t.Fatalf("LoadOwned(%q) error = %v", decomposed, err)
	}
	owned.Release()
}

func TestSystem_DecomposedFileNameAsync(t *testing.T) {
	decomposed := "U\u0308ber.png"
	fsys := fstest.MapFS{decomposed: {Data: encodePNG(t, rgbImage(3, 3))}}
	sys, _ := newTestSystem(t, fsys)

	p := sys.RequestTextureAsync(decomposed, gpucore.QualityLinear)
	waitDrained(t, sys, p)
	if p.Err() != nil {
		t.Fatalf("RequestTextureAsync(%q) error = %v", decomposed, p.Err())
	}

	serveGPU(t, sys)
	sys.InvalidateAll()
	if err := sys.Preload(context.Background(), gpucore.QualityLinear, decomposed); err != nil {
		t.Fatalf("Preload(%q) error = %v", decomposed, err)
	}
	if _, ok := sys.Cached(decomposed); !ok {
		t.Errorf("%q not cached after Preload", decomposed)
	}
}

func TestSystem_LoadErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"fake.png":  {Data: []byte("GIF89a not really")},
		"notes.txt": {Data: []byte("hello")},
	}
	sys, dev := newTestSystem(t, fsys)

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", "missing.png", decode.ErrNotFound},
		{"unsupported", "notes.txt", decode.ErrUnsupportedExtension},
		{"mismatch", "fake.png", decode.ErrExtensionMismatch},
		{"empty path", "", ErrEmptyPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, err := sys.Load(tt.path, gpucore.QualityLinear)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load(%q) error = %v, want %v", tt.path, err, tt.want)
			}
			if tex.Valid() {
				t.Errorf("Load(%q) returned a texture", tt.path)
			}
			if sys.RequestTexture(tt.path, gpucore.QualityLinear).Valid() {
				t.Errorf("RequestTexture(%q) returned a texture", tt.path)
			}
		})
	}

	if dev.Calls().Create != 0 {
		t.Error("failed decodes must not reach the GPU")
	}
	if sys.Stats().DecodeFailures != 6 {
		t.Errorf("DecodeFailures = %d, want 6", sys.Stats().DecodeFailures)
	}
}

func TestSystem_LoadContextCanceled(t *testing.T) {
	fsys := fstest.MapFS{"a.png": {Data: encodePNG(t, rgbImage(3, 3))}}
	sys, _ := newTestSystem(t, fsys)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := sys.LoadContext(ctx, "a.png", gpucore.QualityLinear); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("LoadContext() error = %v, want DeadlineExceeded", err)
	}

	// The upload still completes and is cached.
	sys.ServicePendingUploads()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := sys.Cached("a.png"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("abandoned upload was never cached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSystem_FatalHandler(t *testing.T) {
	var mu sync.Mutex
	var fatal []error
	fsys := fstest.MapFS{"a.png": {Data: encodePNG(t, rgbImage(2, 2))}}
	sys, dev := newTestSystem(t, fsys, WithFatalHandler(func(err error) {
		mu.Lock()
		fatal = append(fatal, err)
		mu.Unlock()
	}))
	dev.FailCreate(errors.New("context lost"))
	serveGPU(t, sys)

	_, err := sys.Load("a.png", gpucore.QualityLinear)
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("Load() error = %v, want ErrUploadFailed", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(fatal) != 1 {
		t.Errorf("fatal handler calls = %d, want 1", len(fatal))
	}
	if _, ok := sys.Cached("a.png"); ok {
		t.Error("failed upload must not be cached")
	}
}

func TestSystem_DefaultWrap(t *testing.T) {
	fsys := fstest.MapFS{"a.png": {Data: encodePNG(t, rgbImage(2, 2))}}
	sys, dev := newTestSystem(t, fsys, WithDefaultWrap(gpucore.WrapClampToEdge))
	serveGPU(t, sys)

	tex := sys.RequestTexture("a.png", gpucore.QualityLinear)
	dt, _ := dev.Texture(tex.ID)
	if dt.WrapS != gpucore.WrapClampToEdge || dt.WrapT != gpucore.WrapClampToEdge {
		t.Errorf("wrap = %v/%v, want ClampToEdge", dt.WrapS, dt.WrapT)
	}
	if dt.MinFilter != gpucore.FilterLinear {
		t.Errorf("MinFilter = %v, want Linear", dt.MinFilter)
	}
}

// =============================================================================
// Async requests
// =============================================================================

func TestSystem_ConcurrentAsyncSameName(t *testing.T) {
	fsys := fstest.MapFS{"hero.png": {Data: encodePNG(t, rgbImage(5, 5))}}
	sys, dev := newTestSystem(t, fsys, WithWorkers(4))

	const n = 8
	var wg sync.WaitGroup
	pendings := make([]*Pending, n)
	for i := range pendings {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pendings[i] = sys.RequestTextureAsync("hero.png", gpucore.QualityLinear)
		}()
	}
	wg.Wait()
	waitDrained(t, sys, pendings...)

	for i, p := range pendings {
		tex, ok := p.Texture()
		if !ok || !tex.Valid() || p.Err() != nil {
			t.Errorf("pending %d = (%v, %v, %v), want a texture", i, tex, ok, p.Err())
		}
	}

	s := sys.Stats()
	if s.Cached != 1 {
		t.Errorf("Cached = %d, want 1", s.Cached)
	}
	if int(s.Uploaded) != n || s.Orphans != n-1 {
		t.Errorf("Uploaded = %d, Orphans = %d, want %d, %d", s.Uploaded, s.Orphans, n, n-1)
	}

	// Every duplicate is released by invalidation; nothing is deleted twice.
	sys.InvalidateAll()
	if got := sys.ReclaimDestroyed(); got != n {
		t.Errorf("ReclaimDestroyed() = %d, want %d", got, n)
	}
	if dev.Len() != 0 {
		t.Errorf("device Len() = %d, want 0", dev.Len())
	}
	if dev.MaxDeleteCount() != 1 {
		t.Errorf("MaxDeleteCount() = %d, want 1", dev.MaxDeleteCount())
	}
}

func TestSystem_AsyncDecodeFailure(t *testing.T) {
	sys, dev := newTestSystem(t, fstest.MapFS{})

	p := sys.RequestTextureAsync("nope.png", gpucore.QualityLinear)
	tex, err := p.WaitContext(context.Background())
	if !errors.Is(err, decode.ErrNotFound) {
		t.Errorf("WaitContext() error = %v, want ErrNotFound", err)
	}
	if tex.Valid() {
		t.Error("failed request returned a texture")
	}
	if dev.Calls().Create != 0 {
		t.Error("failed decode reached the GPU")
	}
}

// blockingCodec is a decoder that waits for release before producing a 1x1
// gray image. It lets tests hold a worker busy.
type blockingCodec struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCodec) decode(io.Reader) (image.Image, error) {
	b.started <- struct{}{}
	<-b.release
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func TestSystem_CloseCancelsQueuedRequests(t *testing.T) {
	codec := &blockingCodec{started: make(chan struct{}, 1), release: make(chan struct{})}
	fsys := fstest.MapFS{
		"a.blk": {Data: []byte{0}},
		"b.blk": {Data: []byte{0}},
		"c.blk": {Data: []byte{0}},
	}
	sys, _ := newTestSystem(t, fsys, WithWorkers(1), WithDecoder(".blk", "", codec.decode))

	running := sys.RequestTextureAsync("a.blk", gpucore.QualityNearest)
	<-codec.started
	queued := []*Pending{
		sys.RequestTextureAsync("b.blk", gpucore.QualityNearest),
		sys.RequestTextureAsync("c.blk", gpucore.QualityNearest),
	}
	if q := sys.Stats().QueuedDecodes; q != 2 {
		t.Errorf("QueuedDecodes = %d, want 2", q)
	}

	closed := make(chan struct{})
	go func() {
		sys.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close() returned while a decode was running")
	case <-time.After(20 * time.Millisecond):
	}
	close(codec.release)
	<-closed

	for _, p := range queued {
		if !p.Ready() || !errors.Is(p.Err(), ErrCanceled) {
			t.Errorf("queued pending %q: ready=%v err=%v, want ErrCanceled", p.Name(), p.Ready(), p.Err())
		}
	}
	if sys.Stats().Workers != 0 {
		t.Errorf("Workers = %d after Close, want 0", sys.Stats().Workers)
	}

	// The running decode finished and still gets its texture.
	waitDrained(t, sys, running)
	if tex, _ := running.Texture(); !tex.Valid() {
		t.Error("running request lost its texture")
	}

	if p := sys.RequestTextureAsync("b.blk", gpucore.QualityNearest); !errors.Is(p.Err(), ErrClosed) {
		t.Errorf("request after Close: err = %v, want ErrClosed", p.Err())
	}
}

func TestSystem_RequestsAfterClose(t *testing.T) {
	fsys := fstest.MapFS{"a.png": {Data: encodePNG(t, rgbImage(10, 7))}}
	sys, dev := newTestSystem(t, fsys)
	serveGPU(t, sys)

	if _, err := sys.Load("a.png", gpucore.QualityLinear); err != nil {
		t.Fatalf("Load() before Close error = %v", err)
	}
	if err := sys.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	creates := dev.Calls().Create

	ctx := context.Background()
	data := encodePNG(t, rgbImage(2, 2))

	tests := []struct {
		name string
		run  func() error
	}{
		{"LoadContext", func() error {
			_, err := sys.LoadContext(ctx, "a.png", gpucore.QualityLinear)
			return err
		}},
		{"Load", func() error {
			_, err := sys.Load("a.png", gpucore.QualityLinear)
			return err
		}},
		{"RequestTextureAsync", func() error {
			return sys.RequestTextureAsync("a.png", gpucore.QualityLinear).Err()
		}},
		{"LoadOwned", func() error {
			_, err := sys.LoadOwned(ctx, "a.png", gpucore.QualityLinear)
			return err
		}},
		{"LoadOwnedBytes", func() error {
			_, err := sys.LoadOwnedBytes(ctx, "b.png", data, gpucore.QualityLinear)
			return err
		}},
		{"Preload", func() error {
			return sys.Preload(ctx, gpucore.QualityLinear, "a.png")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, ErrClosed) {
				t.Errorf("%s after Close: err = %v, want ErrClosed", tt.name, err)
			}
		})
	}

	if sys.RequestTexture("a.png", gpucore.QualityLinear).Valid() {
		t.Error("RequestTexture after Close returned a texture")
	}
	if got := dev.Calls().Create; got != creates {
		t.Errorf("Create calls after Close = %d, want %d", got, creates)
	}
}

// =============================================================================
// Invalidation and owned textures
// =============================================================================

func TestSystem_InvalidateAll(t *testing.T) {
	fsys := fstest.MapFS{
		"a.png": {Data: encodePNG(t, rgbImage(2, 2))},
		"b.png": {Data: encodePNG(t, rgbImage(3, 3))},
		"c.png": {Data: encodePNG(t, rgbImage(4, 4))},
	}
	sys, dev := newTestSystem(t, fsys)

	ps := []*Pending{
		sys.RequestTextureAsync("a.png", gpucore.QualityLinear),
		sys.RequestTextureAsync("b.png", gpucore.QualityLinear),
		sys.RequestTextureAsync("c.png", gpucore.QualityLinear),
	}
	waitDrained(t, sys, ps...)
	old, _ := ps[0].Texture()

	sys.InvalidateAll()
	if s := sys.Stats(); s.Cached != 0 || s.PendingDestroy != 3 {
		t.Errorf("after invalidate: Cached = %d, PendingDestroy = %d, want 0, 3", s.Cached, s.PendingDestroy)
	}
	if dev.Len() != 3 {
		t.Error("InvalidateAll must not touch the device")
	}

	// Idempotent: nothing left to hand over.
	sys.InvalidateAll()
	if got := sys.ReclaimDestroyed(); got != 3 {
		t.Errorf("ReclaimDestroyed() = %d, want 3", got)
	}
	sys.InvalidateAll()
	if got := sys.ReclaimDestroyed(); got != 0 {
		t.Errorf("second ReclaimDestroyed() = %d, want 0", got)
	}
	if dev.Len() != 0 || dev.MaxDeleteCount() != 1 {
		t.Errorf("device Len() = %d, MaxDeleteCount() = %d, want 0, 1", dev.Len(), dev.MaxDeleteCount())
	}
	if sys.Stats().Invalidations != 1 {
		t.Errorf("Invalidations = %d, want 1", sys.Stats().Invalidations)
	}

	// The next request reloads.
	p := sys.RequestTextureAsync("a.png", gpucore.QualityLinear)
	waitDrained(t, sys, p)
	if tex, _ := p.Texture(); !tex.Valid() || tex.ID == old.ID {
		t.Errorf("reload = %v, want a new texture (old %v)", tex, old)
	}
}

func TestSystem_LoadOwned(t *testing.T) {
	fsys := fstest.MapFS{"own.png": {Data: encodePNG(t, rgbImage(6, 3))}}
	sys, dev := newTestSystem(t, fsys)
	serveGPU(t, sys)

	owned, err := sys.LoadOwned(context.Background(), "own.png", gpucore.QualityLinear)
	if err != nil {
		t.Fatalf("LoadOwned() error = %v", err)
	}
	if !owned.Valid() {
		t.Fatal("owned texture invalid")
	}
	if w, h := owned.Texture().PaddedSize(); w != 8 || h != 4 {
		t.Errorf("PaddedSize() = (%d, %d), want (8, 4)", w, h)
	}
	if _, ok := sys.Cached("own.png"); ok {
		t.Error("owned texture must not be cached")
	}

	moved := owned.Take()
	if owned.Valid() || owned.Texture().Width != 0 {
		t.Error("Take() must leave the source empty")
	}
	owned.Release() // no-op on the moved-from owner
	if sys.Stats().PendingDestroy != 0 {
		t.Error("releasing an empty owner scheduled a deletion")
	}

	id := moved.Texture().ID
	moved.Release()
	moved.Release()
	if sys.Stats().PendingDestroy != 1 {
		t.Errorf("PendingDestroy = %d, want 1", sys.Stats().PendingDestroy)
	}
	deadline := time.Now().Add(5 * time.Second)
	for dev.DeleteCount(id) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("owned texture never deleted")
		}
		sys.ReclaimDestroyed()
		time.Sleep(time.Millisecond)
	}
	if dev.DeleteCount(id) != 1 {
		t.Errorf("DeleteCount() = %d, want 1", dev.DeleteCount(id))
	}
}

func TestSystem_LoadOwnedBytes(t *testing.T) {
	sys, _ := newTestSystem(t, fstest.MapFS{})
	serveGPU(t, sys)

	owned, err := sys.LoadOwnedBytes(context.Background(), "mem.png", encodePNG(t, rgbImage(1, 1)), gpucore.QualityNearest)
	if err != nil {
		t.Fatalf("LoadOwnedBytes() error = %v", err)
	}
	defer owned.Release()
	if w, h := owned.Texture().Size(); w != 1 || h != 1 {
		t.Errorf("Size() = (%d, %d), want (1, 1)", w, h)
	}

	if _, err := sys.LoadOwnedBytes(context.Background(), "mem.png", nil, gpucore.QualityNearest); !errors.Is(err, decode.ErrEmptyData) {
		t.Errorf("LoadOwnedBytes(nil) error = %v, want ErrEmptyData", err)
	}
}

// =============================================================================
// Preload
// =============================================================================

func TestSystem_Preload(t *testing.T) {
	fsys := fstest.MapFS{
		"a.png": {Data: encodePNG(t, rgbImage(2, 2))},
		"b.png": {Data: encodePNG(t, rgbImage(3, 3))},
		"c.png": {Data: encodePNG(t, rgbImage(4, 4))},
	}
	sys, _ := newTestSystem(t, fsys)
	serveGPU(t, sys)

	if err := sys.Preload(context.Background(), gpucore.QualityLinear, "a.png", "b.png", "c.png"); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		if _, ok := sys.Cached(name); !ok {
			t.Errorf("%s not cached after Preload", name)
		}
	}

	// Already cached names are skipped.
	before := sys.Stats().Uploaded
	if err := sys.Preload(context.Background(), gpucore.QualityLinear, "a.png"); err != nil {
		t.Fatalf("second Preload() error = %v", err)
	}
	if sys.Stats().Uploaded != before {
		t.Error("Preload re-uploaded a cached texture")
	}
}

func TestSystem_PreloadError(t *testing.T) {
	fsys := fstest.MapFS{"a.png": {Data: encodePNG(t, rgbImage(2, 2))}}
	sys, _ := newTestSystem(t, fsys)
	serveGPU(t, sys)

	err := sys.Preload(context.Background(), gpucore.QualityLinear, "a.png", "missing.png")
	if !errors.Is(err, decode.ErrNotFound) {
		t.Errorf("Preload() error = %v, want ErrNotFound", err)
	}
}

func TestSystem_Extensions(t *testing.T) {
	raw := func(io.Reader) (image.Image, error) { return image.NewGray(image.Rect(0, 0, 1, 1)), nil }
	sys, _ := newTestSystem(t, fstest.MapFS{}, WithDecoder("raw", "", raw))

	exts := sys.Extensions()
	want := map[string]bool{".png": true, ".raw": true}
	found := 0
	for _, ext := range exts {
		if want[ext] {
			found++
		}
	}
	if found != len(want) {
		t.Errorf("Extensions() = %v, want .png and .raw included", exts)
	}
	if !sys.Supported("sprite.RAW") {
		t.Error("Supported(sprite.RAW) = false after WithDecoder")
	}
}
