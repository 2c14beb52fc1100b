package swapchain

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// UndefinedExtent is the current-extent width a surface reports when the
// swapchain decides its own size.
const UndefinedExtent = -1

// ChooseSurfaceFormat prefers 8-bit BGRA (sRGB or UNORM) in the sRGB
// nonlinear color space, falling back to the first format offered.
func ChooseSurfaceFormat(availableFormats []khr_surface.Format) khr_surface.Format {
	for _, preferred := range []core1_0.Format{core1_0.FormatB8G8R8A8SRGB, core1_0.FormatB8G8R8A8UnsignedNormalized} {
		for _, format := range availableFormats {
			if format.Format == preferred && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
				return format
			}
		}
	}

	return availableFormats[0]
}

// ChoosePresentMode prefers mailbox and otherwise uses FIFO, which every
// implementation supports.
func ChoosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent unless it is undefined, in
// which case the drawable size is clamped to the surface limits.
func ChooseExtent(capabilities *khr_surface.Capabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != UndefinedExtent {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(drawableWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(drawableHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ImageCount asks for one image over the minimum, capped by the maximum when
// the surface reports one (0 means unbounded).
func ImageCount(capabilities *khr_surface.Capabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
