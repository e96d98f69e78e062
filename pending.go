package texstream

import (
	"context"
	"sync"

	"github.com/gogpu/texstream/gpucore"
)

// Pending is the result of RequestTextureAsync.
//
// A Pending is resolved exactly once, either with a texture or with the error
// that prevented one. Any number of goroutines may wait on it. Waiting must not
// happen on the GPU goroutine before it has serviced the upload queue.
type Pending struct {
	name string
	done chan struct{}
	once sync.Once

	tex gpucore.Texture // written once before done is closed
	err error
}

func newPending(name string) *Pending {
	return &Pending{name: name, done: make(chan struct{})}
}

// resolvedPending returns a Pending already holding tex.
func resolvedPending(name string, tex gpucore.Texture) *Pending {
	p := newPending(name)
	p.resolve(tex, nil)
	return p
}

// resolve publishes the outcome. Only the first call has an effect.
func (p *Pending) resolve(tex gpucore.Texture, err error) {
	p.once.Do(func() {
		p.tex = tex
		p.err = err
		close(p.done)
	})
}

// Name returns the asset name the request was made for.
func (p *Pending) Name() string {
	return p.name
}

// Wait blocks until the request is resolved and returns the texture,
// which is the zero Texture on failure.
func (p *Pending) Wait() gpucore.Texture {
	<-p.done
	return p.tex
}

// WaitContext blocks until the request is resolved or ctx is done.
func (p *Pending) WaitContext(ctx context.Context) (gpucore.Texture, error) {
	select {
	case <-p.done:
		return p.tex, p.err
	case <-ctx.Done():
		return gpucore.Texture{}, ctx.Err()
	}
}

// Done returns a channel that is closed once the request is resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Ready reports whether the request is resolved, without blocking.
func (p *Pending) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Texture returns the texture if the request is resolved.
func (p *Pending) Texture() (gpucore.Texture, bool) {
	if !p.Ready() {
		return gpucore.Texture{}, false
	}
	return p.tex, true
}

// Err returns the failure reason once resolved, nil otherwise.
func (p *Pending) Err() error {
	if !p.Ready() {
		return nil
	}
	return p.err
}
