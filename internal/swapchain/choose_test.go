package swapchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

func TestChooseExtentClampsUndefinedSurface(t *testing.T) {
	caps := &khr_surface.Capabilities{
		CurrentExtent:  core1_0.Extent2D{Width: UndefinedExtent, Height: UndefinedExtent},
		MinImageExtent: core1_0.Extent2D{Width: 2, Height: 2},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}

	assert.Equal(t, core1_0.Extent2D{Width: 4096, Height: 2}, ChooseExtent(caps, 5000, 1))
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, ChooseExtent(caps, 800, 600))
}

func TestChooseExtentUsesCurrentExtent(t *testing.T) {
	caps := &khr_surface.Capabilities{
		CurrentExtent:  core1_0.Extent2D{Width: 1280, Height: 720},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}

	assert.Equal(t, core1_0.Extent2D{Width: 1280, Height: 720}, ChooseExtent(caps, 5000, 1))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, khr_surface.PresentModeMailbox, ChoosePresentMode([]khr_surface.PresentMode{
		khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox,
	}))
	assert.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode([]khr_surface.PresentMode{
		khr_surface.PresentModeImmediate, khr_surface.PresentModeFIFO,
	}))
	assert.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode(nil))
}

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := khr_surface.Format{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	srgb := khr_surface.Format{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	other := khr_surface.Format{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	assert.Equal(t, srgb, ChooseSurfaceFormat([]khr_surface.Format{other, unorm, srgb}))
	assert.Equal(t, unorm, ChooseSurfaceFormat([]khr_surface.Format{other, unorm}))
	assert.Equal(t, other, ChooseSurfaceFormat([]khr_surface.Format{other}))
}

func TestImageCount(t *testing.T) {
	assert.Equal(t, 3, ImageCount(&khr_surface.Capabilities{MinImageCount: 2}))
	assert.Equal(t, 3, ImageCount(&khr_surface.Capabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, 2, ImageCount(&khr_surface.Capabilities{MinImageCount: 2, MaxImageCount: 2}))
}

func TestRenderPassInfo(t *testing.T) {
	single := RenderPassInfo(core1_0.FormatB8G8R8A8SRGB, core1_0.FormatD32SignedFloat, core1_0.Samples1)
	require.Len(t, single.Attachments, 2)
	require.Len(t, single.Subpasses, 1)
	assert.Empty(t, single.Subpasses[0].ResolveAttachments)

	msaa := RenderPassInfo(core1_0.FormatB8G8R8A8SRGB, core1_0.FormatD32SignedFloat, core1_0.Samples4)
	require.Len(t, msaa.Attachments, 3)
	assert.Equal(t, core1_0.Samples4, msaa.Attachments[ColorAttachment].Samples)
	assert.Equal(t, core1_0.Samples1, msaa.Attachments[ResolveAttachment].Samples)
	require.Len(t, msaa.Subpasses[0].ResolveAttachments, 1)
	assert.Equal(t, ResolveAttachment, msaa.Subpasses[0].ResolveAttachments[0].Attachment)
}

func TestClearValues(t *testing.T) {
	assert.Len(t, ClearValues([4]float32{0, 0, 0, 1}, core1_0.Samples1), 2)
	assert.Len(t, ClearValues([4]float32{0, 0, 0, 1}, core1_0.Samples8), 3)
}
