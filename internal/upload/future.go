package upload

import (
	"context"
	"sync/atomic"

	"github.com/gogpu/texstream/gpucore"
)

// Future is the read side of a one-shot completion channel.
//
// Future is safe for concurrent use; any number of goroutines may wait.
type Future struct {
	done chan struct{}
	tex  gpucore.Texture // written once before done is closed
}

// Promise is the write side of a one-shot completion channel.
// Exactly one goroutine should own a Promise.
type Promise struct {
	f         *Future
	fulfilled atomic.Bool
}

// NewPromise returns a connected promise/future pair.
func NewPromise() (*Promise, *Future) {
	f := &Future{done: make(chan struct{})}
	return &Promise{f: f}, f
}

// Resolved returns a future that is already fulfilled with tex.
func Resolved(tex gpucore.Texture) *Future {
	p, f := NewPromise()
	p.Fulfill(tex)
	return f
}

// Fulfill publishes tex to the future. It succeeds exactly once; later calls
// return false, leave the first value in place and are logged as a bug.
func (p *Promise) Fulfill(tex gpucore.Texture) bool {
	if !p.fulfilled.CompareAndSwap(false, true) {
		slogger().Warn("upload: promise fulfilled twice", "texture", tex.String())
		return false
	}
	p.f.tex = tex
	close(p.f.done)
	return true
}

// Fulfilled reports whether Fulfill has succeeded.
func (p *Promise) Fulfilled() bool {
	return p.fulfilled.Load()
}

// Wait blocks until the future is fulfilled and returns the texture.
func (f *Future) Wait() gpucore.Texture {
	<-f.done
	return f.tex
}

// WaitContext is like Wait but gives up when ctx is done.
func (f *Future) WaitContext(ctx context.Context) (gpucore.Texture, error) {
	select {
	case <-f.done:
		return f.tex, nil
	case <-ctx.Done():
		return gpucore.Texture{}, ctx.Err()
	}
}

// Done returns a channel that is closed once the future is fulfilled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the future is fulfilled, without blocking.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
