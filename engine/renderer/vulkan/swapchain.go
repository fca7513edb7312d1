package vulkan

import (
	"math"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
)

// SwapchainState holds the presentable images and everything derived from
// them. Views and Framebuffers always have ImageCount entries; a degenerate
// extent produces an empty state with no swapchain at all.
type SwapchainState struct {
	Handle       vk.Swapchain
	Extent       metadata.Extent
	ImageCount   uint32
	Images       []vk.Image
	Views        []vk.ImageView
	Framebuffers []*Framebuffer
}

// BuildSwapchain creates a swapchain for the current surface. The surface's
// own extent wins over the requested one when it reports one. Partially
// built objects are destroyed on failure.
func BuildSwapchain(ctx *DeviceContext, renderpass *RenderPass, requested metadata.Extent) (*SwapchainState, error) {
	caps, err := ctx.SurfaceCapabilities()
	if err != nil {
		return nil, errors.Mark(err, core.ErrSwapchain)
	}
	extent := chooseExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent, requested)
	state := &SwapchainState{Extent: extent}
	if extent.Degenerate() {
		core.LogDebug("Surface extent is %s, no swapchain built.", extent)
		return state, nil
	}

	if err := state.build(ctx, renderpass, caps); err != nil {
		state.Destroy(ctx)
		return nil, errors.Mark(err, core.ErrSwapchain)
	}
	core.LogInfo("Swapchain created: %s, %d images.", state.Extent, state.ImageCount)
	return state, nil
}

func (sc *SwapchainState) build(ctx *DeviceContext, renderpass *RenderPass, caps vk.SurfaceCapabilities) error {
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    chooseImageCount(caps.MinImageCount, caps.MaxImageCount),
		ImageFormat:      ctx.SurfaceFormat.Format,
		ImageColorSpace:  ctx.SurfaceFormat.ColorSpace,
		ImageExtent:      vk.Extent2D{Width: sc.Extent.Width, Height: sc.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		// Graphics and present share one queue family.
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      ctx.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	var handle vk.Swapchain
	if err := ResultError(vk.CreateSwapchain(ctx.Device, &swapchainCreateInfo, ctx.Allocator, &handle), "vkCreateSwapchainKHR"); err != nil {
		return err
	}
	sc.Handle = handle

	var count uint32
	if err := ResultError(vk.GetSwapchainImages(ctx.Device, sc.Handle, &count, nil), "vkGetSwapchainImagesKHR"); err != nil {
		return err
	}
	images := make([]vk.Image, count)
	if err := ResultError(vk.GetSwapchainImages(ctx.Device, sc.Handle, &count, images), "vkGetSwapchainImagesKHR"); err != nil {
		return err
	}
	sc.Images = images[:count]

	sc.Views = make([]vk.ImageView, 0, count)
	for _, image := range sc.Images {
		view, err := newImageView(ctx, image)
		if err != nil {
			return err
		}
		sc.Views = append(sc.Views, view)
	}

	sc.Framebuffers = make([]*Framebuffer, 0, count)
	for _, view := range sc.Views {
		fb, err := NewFramebuffer(ctx, renderpass, view, sc.Extent)
		if err != nil {
			return err
		}
		sc.Framebuffers = append(sc.Framebuffers, fb)
	}
	sc.ImageCount = count
	return nil
}

func newImageView(ctx *DeviceContext, image vk.Image) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   ctx.SurfaceFormat.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := ResultError(vk.CreateImageView(ctx.Device, &viewInfo, ctx.Allocator, &view), "vkCreateImageView"); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

// Rebuild waits for the device to go idle, destroys the current state and
// builds a new one. Nothing recorded against the old images can still be in
// flight after the wait. The returned state is the one the caller owns from
// now on, even when err is non-nil.
func (sc *SwapchainState) Rebuild(ctx *DeviceContext, renderpass *RenderPass, requested metadata.Extent) (*SwapchainState, error) {
	return replaceSwapchain(sc,
		ctx.WaitIdle,
		func(old *SwapchainState) { old.Destroy(ctx) },
		func() (*SwapchainState, error) { return BuildSwapchain(ctx, renderpass, requested) },
	)
}

// replaceSwapchain sequences a rebuild. A failed wait hands old back intact
// so it is still destroyed at shutdown. Once old is destroyed a failed build
// yields an empty state.
func replaceSwapchain(
	old *SwapchainState,
	waitIdle func() error,
	destroy func(*SwapchainState),
	build func() (*SwapchainState, error),
) (*SwapchainState, error) {
	if err := waitIdle(); err != nil {
		return old, err
	}
	destroy(old)
	next, err := build()
	if err != nil || next == nil {
		return &SwapchainState{}, err
	}
	return next, nil
}

// Destroy releases framebuffers, then views, then the swapchain. The images
// belong to the swapchain and go with it.
func (sc *SwapchainState) Destroy(ctx *DeviceContext) {
	for _, fb := range sc.Framebuffers {
		fb.Destroy(ctx)
	}
	sc.Framebuffers = nil
	for _, view := range sc.Views {
		vk.DestroyImageView(ctx.Device, view, ctx.Allocator)
	}
	sc.Views = nil
	sc.Images = nil
	if sc.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(ctx.Device, sc.Handle, ctx.Allocator)
		sc.Handle = vk.NullSwapchain
	}
	sc.ImageCount = 0
}

// AcquireNextImage reports out-of-date and suboptimal swapchains as
// core.ErrSwapchainStale. A suboptimal acquire still signals semaphore.
func (sc *SwapchainState) AcquireNextImage(ctx *DeviceContext, semaphore vk.Semaphore) (uint32, error) {
	if sc.ImageCount == 0 {
		return 0, errors.Mark(errors.New("no swapchain images to acquire"), core.ErrSwapchainStale)
	}
	var imageIndex uint32
	res := vk.AcquireNextImage(ctx.Device, sc.Handle, math.MaxUint64, semaphore, vk.NullFence, &imageIndex)
	if err := ResultError(res, "vkAcquireNextImageKHR"); err != nil {
		return 0, err
	}
	return imageIndex, nil
}

func (sc *SwapchainState) Present(ctx *DeviceContext, semaphore vk.Semaphore, imageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{semaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	return ResultError(vk.QueuePresent(ctx.GraphicsQueue, &presentInfo), "vkQueuePresentKHR")
}
