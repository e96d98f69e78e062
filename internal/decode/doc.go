// Package decode turns image assets into padded pixel buffers ready for GPU
// upload.
//
// Decoding is synchronous and never touches the GPU, so it runs on worker
// goroutines. The output buffer is always padded to power-of-two dimensions
// in both axes; the margin is zero-filled and the decoded image occupies the
// top-left region.
//
// Supported codecs:
//   - PNG (image/png)
//   - BMP, TIFF, WebP (golang.org/x/image)
//
// File content is sniffed before decoding so that a file whose bytes do not
// match its extension is rejected with [ErrExtensionMismatch].
package decode
