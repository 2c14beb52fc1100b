// Package transfer records and synchronously executes one-shot command
// buffers: staging uploads, image layout transitions and mipmap generation.
// Every submission blocks until the queue is idle, so it is only meant for
// load-time work.
package transfer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

type Engine struct {
	device         core1_0.Device
	physicalDevice core1_0.PhysicalDevice
	queue          core1_0.Queue
	pool           core1_0.CommandPool
}

// New creates a dedicated command pool on queueFamily for one-shot work.
func New(device core1_0.Device, physicalDevice core1_0.PhysicalDevice, queue core1_0.Queue, queueFamily int) (*Engine, error) {
	pool, _, err := device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: &queueFamily,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create transfer command pool")
	}

	return &Engine{
		device:         device,
		physicalDevice: physicalDevice,
		queue:          queue,
		pool:           pool,
	}, nil
}

func (e *Engine) Destroy() {
	if e.pool != nil {
		e.pool.Destroy(nil)
		e.pool = nil
	}
}

// Submit records a single command buffer with record, submits it and waits
// for the queue to go idle before freeing it.
func (e *Engine) Submit(record func(cmd core1_0.CommandBuffer) error) error {
	buffers, _, err := e.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        e.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return errors.Wrap(err, "allocate one-shot command buffer")
	}
	defer e.device.FreeCommandBuffers(buffers)

	buffer := buffers[0]
	_, err = buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Wrap(err, "begin one-shot command buffer")
	}

	err = record(buffer)
	if err != nil {
		return err
	}

	_, err = buffer.End()
	if err != nil {
		return errors.Wrap(err, "end one-shot command buffer")
	}

	_, err = e.queue.Submit(nil, []core1_0.SubmitInfo{
		{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	})
	if err != nil {
		return errors.Wrap(err, "submit one-shot command buffer")
	}

	_, err = e.queue.WaitIdle()
	return errors.Wrap(err, "wait for transfer queue")
}

func (e *Engine) CopyBuffer(src, dst core1_0.Buffer, size int) error {
	return e.Submit(func(cmd core1_0.CommandBuffer) error {
		return cmd.CmdCopyBuffer(src, dst, []core1_0.BufferCopy{
			{
				SrcOffset: 0,
				DstOffset: 0,
				Size:      size,
			},
		})
	})
}

// CopyBufferToImage copies tightly packed layers from src into mip level 0
// of image, which must be in TransferDstOptimal layout.
func (e *Engine) CopyBufferToImage(src core1_0.Buffer, image core1_0.Image, width, height, layers int) error {
	return e.Submit(func(cmd core1_0.CommandBuffer) error {
		return cmd.CmdCopyBufferToImage(src, image, core1_0.ImageLayoutTransferDstOptimal, []core1_0.BufferImageCopy{
			{
				BufferOffset:      0,
				BufferRowLength:   0,
				BufferImageHeight: 0,

				ImageSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     core1_0.ImageAspectColor,
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     layers,
				},
				ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
			},
		})
	})
}
