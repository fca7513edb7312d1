package vulkan

import (
	"math"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
	"golang.org/x/exp/constraints"
)

var preferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Unorm,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// chooseSurfaceFormat prefers B8G8R8A8_UNORM in the sRGB nonlinear color
// space and falls back to the first reported format. A single UNDEFINED
// entry means the surface has no preference.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, errors.New("surface reports no formats")
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return preferredSurfaceFormat, nil
	}
	for _, format := range formats {
		if format.Format == preferredSurfaceFormat.Format && format.ColorSpace == preferredSurfaceFormat.ColorSpace {
			return format, nil
		}
	}
	return formats[0], nil
}

// choosePresentMode returns MAILBOX when requested and available. FIFO is
// the only mode every implementation has to support.
func choosePresentMode(modes []vk.PresentMode, preferMailbox bool) vk.PresentMode {
	if preferMailbox {
		for _, mode := range modes {
			if mode == vk.PresentModeMailbox {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

// chooseImageCount asks for one image more than the minimum, capped by the
// maximum when the surface has one.
func chooseImageCount(minCount, maxCount uint32) uint32 {
	count := minCount + 1
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}
	return count
}

// chooseExtent uses the surface's current extent when it is defined and the
// requested size clamped to the supported range otherwise.
func chooseExtent(current, minExtent, maxExtent vk.Extent2D, requested metadata.Extent) metadata.Extent {
	if current.Width != math.MaxUint32 {
		return metadata.NewExtent(current.Width, current.Height)
	}
	// A zero dimension means do not render; clamping would hide it.
	if requested.Degenerate() {
		return requested
	}
	return metadata.NewExtent(
		Clamp(requested.Width, minExtent.Width, maxExtent.Width),
		Clamp(requested.Height, minExtent.Height, maxExtent.Height),
	)
}

func Clamp[T constraints.Ordered](value, lo, hi T) T {
	if value <= lo {
		return lo
	}
	if value >= hi {
		return hi
	}
	return value
}

type queueFamily struct {
	Graphics bool
	Present  bool
}

// pickQueueFamily returns the first family that can both render and present.
func pickQueueFamily(families []queueFamily) (uint32, bool) {
	for i, family := range families {
		if family.Graphics && family.Present {
			return uint32(i), true
		}
	}
	return 0, false
}

func hasName(available []string, name string) bool {
	for _, candidate := range available {
		if candidate == name {
			return true
		}
	}
	return false
}
