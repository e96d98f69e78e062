// Package texstream loads image assets into GPU textures without stalling
// the render loop.
//
// # Overview
//
// A System decodes images (PNG always; BMP, TIFF and WebP through
// golang.org/x/image) into power-of-two padded pixel buffers, queues them for
// upload, and caches the resulting textures by file name. All GPU calls go
// through a gpucore.Device and happen only on the goroutine that owns the GPU
// context, inside ServicePendingUploads and ReclaimDestroyed.
//
// # Quick Start
//
//	dev := headless.New() // or a backend/hal device
//	sys := texstream.New(dev, texstream.WithAssetRoot("assets"))
//	defer sys.Close()
//
//	// Any goroutine:
//	p := sys.RequestTextureAsync("ui/button.png", gpucore.QualityLinear)
//
//	// GPU goroutine, once per frame:
//	sys.ServicePendingUploads()
//	sys.ReclaimDestroyed()
//	if tex, ok := p.Texture(); ok && tex.Valid() {
//		u, v := tex.UV()
//		// draw with tex.ID, sampling [0,u]x[0,v]
//	}
//
// # Textures
//
// Textures are allocated at the next power of two in each dimension. The
// image occupies the top-left corner; the margin is zero. Texture reports
// both sizes. The zero Texture means "no texture" and is what failed
// requests return.
//
// # Lifetime
//
// Cached textures live until InvalidateAll, which hands them to a deferred
// destruction queue drained by ReclaimDestroyed. Textures from LoadOwned are
// not cached; their OwnedTexture releases them into the same queue.
//
// # Threading
//
// Blocking calls (RequestTexture, Load, LoadOwned, Preload) wait for the GPU
// goroutine to service the upload queue and therefore must not be made on
// it. RequestTextureAsync never blocks.
//
// # Logging
//
// texstream is silent by default. See SetLogger.
package texstream
