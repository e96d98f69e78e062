package texstream

import (
	"github.com/gogpu/texstream/gpucore"
	"github.com/gogpu/texstream/internal/trash"
)

// OwnedTexture is the sole owner of a GPU texture outside the registry.
//
// Ownership moves with Take; the source is left empty and its Release does
// nothing. Release hands the texture to the system's destruction queue, so it
// is deleted on the GPU goroutine by the next ReclaimDestroyed. An
// OwnedTexture is not safe for concurrent use.
type OwnedTexture struct {
	tex gpucore.Texture
	bin *trash.Bin
}

// Texture returns the owned texture, or the zero Texture if empty.
func (o *OwnedTexture) Texture() gpucore.Texture {
	if o == nil {
		return gpucore.Texture{}
	}
	return o.tex
}

// Valid reports whether o owns a texture.
func (o *OwnedTexture) Valid() bool {
	return o != nil && o.tex.Valid()
}

// Take moves ownership into a new OwnedTexture and empties o.
func (o *OwnedTexture) Take() *OwnedTexture {
	if o == nil {
		return &OwnedTexture{}
	}
	moved := &OwnedTexture{tex: o.tex, bin: o.bin}
	o.tex = gpucore.Texture{}
	o.bin = nil
	return moved
}

// Release gives the texture up for deletion. It is safe to call more than
// once and on an empty owner, and it never blocks.
func (o *OwnedTexture) Release() {
	if o == nil || !o.tex.Valid() {
		return
	}
	if o.bin != nil {
		o.bin.Discard(o.tex.ID)
	}
	o.tex = gpucore.Texture{}
	o.bin = nil
}
