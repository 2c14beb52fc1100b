package frame

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// FramesInFlight bounds how many submitted frames may be unfinished on the
// GPU at once.
const FramesInFlight = 2

// Slot bundles everything one frame in flight owns. A slot is reused only
// after its InFlight fence has been observed signaled.
type Slot struct {
	Index int

	CommandBuffer  core1_0.CommandBuffer
	ImageAvailable core1_0.Semaphore
	RenderFinished core1_0.Semaphore
	InFlight       core1_0.Fence
}

// Begin resets the slot's command buffer and starts recording into it.
func (s *Slot) Begin() error {
	_, err := s.CommandBuffer.Reset(0)
	if err != nil {
		return errors.Wrapf(err, "reset command buffer of slot %d", s.Index)
	}

	_, err = s.CommandBuffer.Begin(core1_0.CommandBufferBeginInfo{})
	return errors.Wrapf(err, "begin command buffer of slot %d", s.Index)
}

func (s *Slot) End() error {
	_, err := s.CommandBuffer.End()
	return errors.Wrapf(err, "end command buffer of slot %d", s.Index)
}

// NewCommandPool creates the pool the slots' command buffers come from.
// Buffers are reset one at a time, so the pool allows individual resets.
func NewCommandPool(device core1_0.Device, queueFamily int) (core1_0.CommandPool, error) {
	pool, _, err := device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: &queueFamily,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create frame command pool")
	}
	return pool, nil
}

// NewSlots allocates one command buffer, two semaphores and a signaled fence
// per slot. The fences start signaled so the first wait on each returns.
func NewSlots(device core1_0.Device, pool core1_0.CommandPool) (slots [FramesInFlight]*Slot, err error) {
	defer func() {
		if err != nil {
			DestroySlots(device, pool, slots)
		}
	}()

	buffers, _, err := device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: FramesInFlight,
	})
	if err != nil {
		return slots, errors.Wrap(err, "allocate frame command buffers")
	}

	for i := range slots {
		slot := &Slot{Index: i, CommandBuffer: buffers[i]}
		slots[i] = slot

		slot.ImageAvailable, _, err = device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return slots, errors.Wrapf(err, "create image-available semaphore %d", i)
		}

		slot.RenderFinished, _, err = device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return slots, errors.Wrapf(err, "create render-finished semaphore %d", i)
		}

		slot.InFlight, _, err = device.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return slots, errors.Wrapf(err, "create in-flight fence %d", i)
		}
	}

	return slots, nil
}

// DestroySlots releases every object NewSlots created. The device must be idle.
func DestroySlots(device core1_0.Device, pool core1_0.CommandPool, slots [FramesInFlight]*Slot) {
	var buffers []core1_0.CommandBuffer
	for _, slot := range slots {
		if slot == nil {
			continue
		}

		if slot.InFlight != nil {
			slot.InFlight.Destroy(nil)
		}
		if slot.RenderFinished != nil {
			slot.RenderFinished.Destroy(nil)
		}
		if slot.ImageAvailable != nil {
			slot.ImageAvailable.Destroy(nil)
		}
		if slot.CommandBuffer != nil {
			buffers = append(buffers, slot.CommandBuffer)
		}
	}

	if len(buffers) > 0 {
		device.FreeCommandBuffers(buffers)
	}
}
