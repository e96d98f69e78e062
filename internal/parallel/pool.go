// Package parallel provides the background worker pool that runs decode jobs.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Task is a unit of background work.
//
// Run executes on a worker goroutine. Discard, if set, is called instead of
// Run when the pool is stopped before the task was picked up, so whoever waits
// on the task's result is never left hanging.
type Task struct {
	Run     func()
	Discard func()
}

// WorkerPool is a restartable pool of goroutines fed from one FIFO queue.
//
// Idle workers sleep on a condition variable; Submit wakes one of them.
// The pool moves between two states: stopped (the zero value) and running.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu    sync.Mutex
	cond  *sync.Cond
	queue []Task
	alive bool // guarded by mu; workers re-check it after every wake

	// workers is the number of live worker goroutines.
	workers atomic.Int32

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running mirrors alive for lock-free reads.
	running atomic.Bool

	discarded atomic.Uint64
}

// NewWorkerPool creates a stopped pool. Call Start to launch workers.
func NewWorkerPool() *WorkerPool {
	p := &WorkerPool{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches n workers. If n is 0 or negative, GOMAXPROCS is used.
// Starting a running pool stops it first, discarding its queued tasks.
func (p *WorkerPool) Start(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stop()

	p.mu.Lock()
	p.alive = true
	p.running.Store(true)
	p.mu.Unlock()

	p.wg.Add(n)
	p.workers.Store(int32(n))
	for range n {
		go p.worker()
	}
}

// Stop signals every worker to exit and waits for all of them.
// Tasks already running finish; tasks still queued are discarded.
// Stop is safe to call multiple times and on a pool that never started.
func (p *WorkerPool) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stop()
}

// Close is an alias for Stop.
func (p *WorkerPool) Close() {
	p.Stop()
}

// stop does the work of Stop. Caller must hold p.lifecycle.
func (p *WorkerPool) stop() {
	p.mu.Lock()
	if !p.alive {
		p.mu.Unlock()
		return
	}
	p.alive = false
	p.running.Store(false)
	pending := p.queue
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	p.workers.Store(0)

	for _, t := range pending {
		if t.Discard != nil {
			t.Discard()
		}
	}
	p.discarded.Add(uint64(len(pending)))
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for p.alive && len(p.queue) == 0 {
			p.cond.Wait()
		}
		if !p.alive {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue[0] = Task{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if t.Run != nil {
			t.Run()
		}
	}
}

// Submit queues t and wakes one idle worker.
// It returns false, without calling anything on t, if the pool is not running.
func (p *WorkerPool) Submit(t Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.alive {
		return false
	}
	p.queue = append(p.queue, t)
	p.cond.Signal()
	return true
}

// Workers returns the number of live workers; 0 when stopped.
func (p *WorkerPool) Workers() int {
	return int(p.workers.Load())
}

// IsRunning returns true if the pool is accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork returns the number of tasks waiting for a worker.
func (p *WorkerPool) QueuedWork() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Discarded returns the total number of tasks dropped by Stop.
func (p *WorkerPool) Discarded() uint64 {
	return p.discarded.Load()
}
