package frame

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Presentable yields the current swapchain handle, which changes on every
// recreation.
type Presentable interface {
	Handle() khr_swapchain.Swapchain
	Extension() khr_swapchain.Extension
}

// VulkanDriver runs the frame protocol against a real device.
type VulkanDriver struct {
	device        core1_0.Device
	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue
	swapchain     Presentable
}

func NewVulkanDriver(device core1_0.Device, graphicsQueue, presentQueue core1_0.Queue, swapchain Presentable) *VulkanDriver {
	return &VulkanDriver{
		device:        device,
		graphicsQueue: graphicsQueue,
		presentQueue:  presentQueue,
		swapchain:     swapchain,
	}
}

func (d *VulkanDriver) WaitForFence(slot *Slot) error {
	_, err := d.device.WaitForFences(true, common.NoTimeout, []core1_0.Fence{slot.InFlight})
	return errors.Wrapf(err, "wait for fence of slot %d", slot.Index)
}

func (d *VulkanDriver) AcquireNextImage(slot *Slot) (int, Status, error) {
	imageIndex, res, err := d.swapchain.Handle().AcquireNextImage(common.NoTimeout, slot.ImageAvailable, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, OutOfDate, nil
	} else if err != nil {
		return 0, Success, errors.Wrap(err, "acquire swapchain image")
	}

	if res == khr_swapchain.VKSuboptimal {
		return imageIndex, Suboptimal, nil
	}
	return imageIndex, Success, nil
}

func (d *VulkanDriver) ResetFence(slot *Slot) error {
	_, err := d.device.ResetFences([]core1_0.Fence{slot.InFlight})
	return errors.Wrapf(err, "reset fence of slot %d", slot.Index)
}

func (d *VulkanDriver) Submit(slot *Slot) error {
	_, err := d.graphicsQueue.Submit(slot.InFlight, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{slot.ImageAvailable},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{slot.CommandBuffer},
			SignalSemaphores: []core1_0.Semaphore{slot.RenderFinished},
		},
	})
	return errors.Wrapf(err, "submit slot %d", slot.Index)
}

func (d *VulkanDriver) Present(slot *Slot, imageIndex int) (Status, error) {
	res, err := d.swapchain.Extension().QueuePresent(d.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{slot.RenderFinished},
		Swapchains:     []khr_swapchain.Swapchain{d.swapchain.Handle()},
		ImageIndices:   []int{imageIndex},
	})
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return OutOfDate, nil
	case err != nil:
		return Success, errors.Wrap(err, "present swapchain image")
	case res == khr_swapchain.VKSuboptimal:
		return Suboptimal, nil
	}
	return Success, nil
}
