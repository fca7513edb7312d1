package renderer

import "github.com/spaghettifunk/phase/engine/renderer/metadata"

// Backend is the GPU-facing half of the engine. The frame loop drives it in
// a fixed order every frame; an implementation owns the device, the frame
// synchronization objects, the vertex buffer, the swapchain and the
// pipeline.
//
// AcquireNextImage and Present report a swapchain that no longer matches the
// surface with an error marked core.ErrSwapchainStale. Every other error is
// treated as fatal.
type Backend interface {
	// Extent of the current swapchain. Degenerate when no swapchain images exist.
	Extent() metadata.Extent
	// RebuildSwapchain waits for the device, destroys the current swapchain
	// state and builds a new one for the requested extent. The resulting
	// extent may differ from the request when the surface dictates its size.
	RebuildSwapchain(requested metadata.Extent) error
	// WaitForFrame blocks until the previous submission completed.
	WaitForFrame() error
	// UploadVertices writes the per-frame vertex data into mapped memory.
	UploadVertices(vertices []metadata.Vertex) error
	AcquireNextImage() (uint32, error)
	RecordCommands(imageIndex uint32) error
	// Submit resets the frame fence and submits the recorded commands.
	Submit() error
	Present(imageIndex uint32) error
	WaitIdle() error
	// Shutdown releases every owned object in reverse creation order.
	Shutdown() error
}
