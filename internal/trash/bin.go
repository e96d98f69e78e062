// Package trash defers GPU texture destruction to the GPU goroutine.
//
// Producers on any goroutine hand texture IDs to a Bin; the goroutine that
// owns the GPU context deletes them later with Reclaim. Two paths exist:
//
//   - Publish hands over a whole batch (a registry invalidation). There is a
//     single pending batch; a second publisher spins until the GPU goroutine
//     has reclaimed the first.
//   - Discard hands over one ID (an owned texture being released). It never
//     blocks, so it is safe to call from the GPU goroutine itself.
package trash

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gogpu/texstream/gpucore"
)

// Bin holds texture IDs awaiting deletion.
//
// Publish and Discard are safe for concurrent use. Reclaim must only be
// called from the goroutine that owns the GPU context.
type Bin struct {
	// busy is nonzero while a publisher is building the batch. Reclaim
	// skips the batch while it is nonzero.
	busy atomic.Int32

	// batch is written before count; count is stored last (release) and
	// loaded first (acquire), so a nonzero count implies a visible batch.
	batch atomic.Pointer[[]gpucore.TextureID]
	count atomic.Int64

	// publishMu serializes publishers once the slot is free.
	publishMu sync.Mutex

	looseMu sync.Mutex
	loose   []gpucore.TextureID

	reclaimed atomic.Uint64
}

// New creates an empty bin.
func New() *Bin {
	return &Bin{}
}

// Publish hands ids to the GPU goroutine for deletion.
//
// If a previous batch has not been reclaimed yet, Publish yields until it has.
// Publish must therefore never be called from the GPU goroutine while a batch
// is outstanding. An empty ids is a no-op.
func (b *Bin) Publish(ids []gpucore.TextureID) {
	if len(ids) == 0 {
		return
	}

	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	for b.count.Load() != 0 {
		runtime.Gosched()
	}

	b.busy.Add(1)
	batch := make([]gpucore.TextureID, len(ids))
	copy(batch, ids)
	b.batch.Store(&batch)
	b.count.Store(int64(len(batch)))
	b.busy.Add(-1)
}

// Discard hands a single id to the GPU goroutine for deletion.
// It never blocks on the GPU goroutine.
func (b *Bin) Discard(id gpucore.TextureID) {
	if id == gpucore.InvalidID {
		return
	}
	b.looseMu.Lock()
	b.loose = append(b.loose, id)
	b.looseMu.Unlock()
}

// Reclaim deletes every ID that is ready and returns how many were deleted.
// Call it from the GPU goroutine, typically once per frame.
//
// A published batch is left alone while a publisher is still building it;
// it is picked up by a later Reclaim.
func (b *Bin) Reclaim(dev gpucore.Device) int {
	n := 0

	if c := b.count.Load(); c != 0 && b.busy.Load() == 0 {
		ids := *b.batch.Load()
		dev.DeleteTextures(ids)
		b.batch.Store(nil)
		b.count.Store(0)
		n += len(ids)
	}

	b.looseMu.Lock()
	loose := b.loose
	b.loose = nil
	b.looseMu.Unlock()

	if len(loose) > 0 {
		dev.DeleteTextures(loose)
		n += len(loose)
	}

	b.reclaimed.Add(uint64(n))
	return n
}

// Pending returns the number of IDs waiting for Reclaim.
func (b *Bin) Pending() int {
	b.looseMu.Lock()
	loose := len(b.loose)
	b.looseMu.Unlock()
	return int(b.count.Load()) + loose
}

// Reclaimed returns the total number of IDs deleted so far.
func (b *Bin) Reclaimed() uint64 {
	return b.reclaimed.Load()
}
