package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Attachment indices within the render pass.
const (
	ColorAttachment   = 0
	DepthAttachment   = 1
	ResolveAttachment = 2
)

// RenderPassInfo describes the single-subpass forward pass. With more than
// one sample the color attachment is a transient multisampled target
// resolved into the swapchain image; otherwise the swapchain image is
// rendered to directly.
func RenderPassInfo(colorFormat, depthFormat core1_0.Format, samples core1_0.SampleCountFlags) core1_0.RenderPassCreateInfo {
	multisampled := samples != core1_0.Samples1

	colorFinalLayout := khr_swapchain.ImageLayoutPresentSrc
	if multisampled {
		colorFinalLayout = core1_0.ImageLayoutColorAttachmentOptimal
	}

	attachments := []core1_0.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        samples,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    colorFinalLayout,
		},
		{
			Format:         depthFormat,
			Samples:        samples,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpDontCare,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	subpass := core1_0.SubpassDescription{
		PipelineBindPoint: core1_0.PipelineBindPointGraphics,
		ColorAttachments: []core1_0.AttachmentReference{
			{
				Attachment: ColorAttachment,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		},
		DepthStencilAttachment: &core1_0.AttachmentReference{
			Attachment: DepthAttachment,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	if multisampled {
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         colorFormat,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpDontCare,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
		})
		subpass.ResolveAttachments = []core1_0.AttachmentReference{
			{
				Attachment: ResolveAttachment,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		}
	}

	return core1_0.RenderPassCreateInfo{
		Attachments: attachments,
		Subpasses:   []core1_0.SubpassDescription{subpass},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	}
}

func CreateRenderPass(device core1_0.Device, colorFormat, depthFormat core1_0.Format, samples core1_0.SampleCountFlags) (core1_0.RenderPass, error) {
	renderPass, _, err := device.CreateRenderPass(nil, RenderPassInfo(colorFormat, depthFormat, samples))
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return renderPass, nil
}

// ClearValues matches the attachment order of RenderPassInfo.
func ClearValues(color [4]float32, samples core1_0.SampleCountFlags) []core1_0.ClearValue {
	values := []core1_0.ClearValue{
		core1_0.ClearValueFloat(color),
		core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
	}
	if samples != core1_0.Samples1 {
		values = append(values, core1_0.ClearValueFloat(color))
	}
	return values
}
