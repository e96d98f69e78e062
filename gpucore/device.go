package gpucore

// Device abstracts the GPU calls needed to create and destroy textures.
//
// This interface mirrors the classic GL texture entry points so that both a
// GL-style binding and a WebGPU-style HAL can implement it. Implementations
// are NOT required to be safe for concurrent use: every method is called
// from the single goroutine that owns the GPU context.
//
// Resource lifecycle:
//   - Textures are created via CreateTexture and filled via Upload
//   - Textures must be explicitly destroyed via DeleteTextures
//   - IDs become invalid after destruction and must not be reused
type Device interface {
	// CreateTexture allocates a new texture name.
	// An error here means the GPU context is unusable.
	CreateTexture() (TextureID, error)

	// BindTexture makes id the current 2D texture.
	BindTexture(id TextureID)

	// SetFilter sets the minification and magnification filters of id.
	SetFilter(id TextureID, minFilter, magFilter Filter)

	// SetWrap sets the S and T wrap modes of id.
	SetWrap(id TextureID, s, t Wrap)

	// Upload stores pixels as the level-0 image of id.
	// len(pixels) must be width*height*format.Channels().
	Upload(id TextureID, width, height int, format Format, pixels []byte) error

	// DeleteTextures destroys every texture in ids. Unknown or invalid IDs
	// are ignored.
	DeleteTextures(ids []TextureID)
}
