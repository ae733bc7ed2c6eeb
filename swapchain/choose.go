package swapchain

import (
	"cmp"
	"math"

	vk "github.com/goki/vulkan"
)

// MinImages is the image count asked for when the surface allows it.
const MinImages = 3

// ChooseImageCount returns max(MinImages, capabilities.MinImageCount) clamped
// to MaxImageCount. A MaxImageCount of zero means there is no limit.
func ChooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := max(MinImages, capabilities.MinImageCount)
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

// ChooseSurfaceFormat prefers 8 bit BGRA sRGB. Otherwise the first available
// format is used. availableFormats must not be empty.
func ChooseSurfaceFormat(availableFormats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == vk.FormatB8g8r8a8Srgb &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

// ChoosePresentMode prefers mailbox and falls back to FIFO which every
// implementation supports.
func ChoosePresentMode(available []vk.PresentMode) vk.PresentMode {
	for _, mode := range available {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}

	return vk.PresentModeFifo
}

// ChooseExtent returns the current extent of the surface. When the surface
// leaves the choice to the swapchain the framebuffer size is used, clamped to
// the supported range.
func ChooseExtent(capabilities vk.SurfaceCapabilities, width, height int) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}

	return vk.Extent2D{
		Width: clamp(
			uint32(width),
			capabilities.MinImageExtent.Width,
			capabilities.MaxImageExtent.Width,
		),
		Height: clamp(
			uint32(height),
			capabilities.MinImageExtent.Height,
			capabilities.MaxImageExtent.Height,
		),
	}
}

func clamp[T cmp.Ordered](val, min, max T) T {
	if val < min {
		val = min
	}
	if val > max {
		val = max
	}
	return val
}
