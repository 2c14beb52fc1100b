package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/pbr-renderer/internal/frame"
	"github.com/vkngwrapper/pbr-renderer/internal/swapchain"
)

var _ frame.Recorder = (*Engine)(nil)

// Record writes the slot's uniforms and records the frame: the model with
// the PBR pipeline, then the skybox, then the overlay.
func (e *Engine) Record(slot *frame.Slot, imageIndex int) error {
	extent := e.swapchain.Extent()
	e.camera.SetAspectRatio(extent.Width, extent.Height)

	err := e.uniforms.Update(slot.Index, e.camera)
	if err != nil {
		return err
	}

	e.overlay.Begin()

	err = slot.Begin()
	if err != nil {
		return err
	}
	cmd := slot.CommandBuffer

	err = cmd.CmdBeginRenderPass(core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
		RenderPass:  e.swapchain.RenderPass(),
		Framebuffer: e.swapchain.Framebuffer(imageIndex),
		RenderArea: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValues: swapchain.ClearValues(e.cfg.ClearColor, e.swapchain.Samples()),
	})
	if err != nil {
		return errors.Wrapf(err, "begin render pass for image %d", imageIndex)
	}

	cmd.CmdSetViewport([]core1_0.Viewport{
		{
			X:        0,
			Y:        0,
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
	})
	cmd.CmdSetScissor([]core1_0.Rect2D{
		{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
	})

	sets := e.uniforms.Slot(slot.Index)

	cmd.CmdBindPipeline(core1_0.PipelineBindPointGraphics, e.pbrPipeline.Handle)
	cmd.CmdBindDescriptorSets(core1_0.PipelineBindPointGraphics, e.pbrPipeline.Layout, []core1_0.DescriptorSet{
		sets.SceneSet,
	}, []int{0})
	e.model.Draw(cmd)

	cmd.CmdBindPipeline(core1_0.PipelineBindPointGraphics, e.skyboxPipeline.Handle)
	cmd.CmdBindDescriptorSets(core1_0.PipelineBindPointGraphics, e.skyboxPipeline.Layout, []core1_0.DescriptorSet{
		sets.SkyboxSet,
	}, []int{0})
	e.skybox.Draw(cmd)

	e.overlay.End(cmd)

	cmd.CmdEndRenderPass()
	return slot.End()
}
