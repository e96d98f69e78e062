// Package gpucore defines the narrow GPU contract used by the texture
// pipeline.
//
// The pipeline never talks to a graphics API directly. Decoded pixel buffers
// are handed to a [Device], which is the only type allowed to issue GPU calls.
// Implementations live under backend/:
//   - backend/hal wraps gogpu/wgpu HAL (Vulkan, Metal, DX12, GLES)
//   - backend/headless records calls in memory for tests and tooling
//
//	               +------------------+
//	               |    texstream     |
//	               | (System, queues) |
//	               +--------+---------+
//	                        |
//	                 gpucore.Device
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|   backend/hal   |          |backend/headless |
//	|  (hal.Device)   |          |   (recorder)    |
//	+-----------------+          +-----------------+
//
// # Threading
//
// Every [Device] method must be called from the goroutine that owns the GPU
// context (the render goroutine). [TextureID] and [Texture] values are plain
// tokens: they may be passed between goroutines freely, but only used on the
// GPU goroutine.
//
// # Resource Management
//
// Textures are identified by opaque [TextureID] values. [InvalidID] (zero) is
// never returned by a successful CreateTexture and denotes "no texture".
package gpucore
