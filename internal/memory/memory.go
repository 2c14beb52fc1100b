// Package memory creates buffers and images together with their backing
// device memory, and owns them until they are destroyed.
package memory

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// ErrNoMemoryType is returned when no memory type satisfies a request.
var ErrNoMemoryType = errors.New("failed to find any suitable memory type")

// FindMemoryType returns the first memory type whose bit is set in typeFilter
// and whose property flags include every flag in properties.
func FindMemoryType(memProperties *core1_0.PhysicalDeviceMemoryProperties, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	if memProperties == nil {
		return 0, errors.Wrap(ErrNoMemoryType, "no memory properties")
	}

	for i, memoryType := range memProperties.MemoryTypes {
		if i >= 32 {
			break
		}
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Wrapf(ErrNoMemoryType, "filter %#x, properties %s", typeFilter, properties)
}

// Allocator binds freshly created buffers and images to dedicated memory
// allocations. Every allocation is bound at offset 0.
type Allocator struct {
	device        core1_0.Device
	memProperties *core1_0.PhysicalDeviceMemoryProperties
}

func NewAllocator(device core1_0.Device, memProperties *core1_0.PhysicalDeviceMemoryProperties) *Allocator {
	return &Allocator{device: device, memProperties: memProperties}
}

func (a *Allocator) Device() core1_0.Device {
	return a.device
}

func (a *Allocator) allocate(reqs *core1_0.MemoryRequirements, properties core1_0.MemoryPropertyFlags) (core1_0.DeviceMemory, error) {
	memoryTypeIndex, err := FindMemoryType(a.memProperties, reqs.MemoryTypeBits, properties)
	if err != nil {
		return nil, err
	}

	memory, _, err := a.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d bytes of memory type %d", reqs.Size, memoryTypeIndex)
	}
	return memory, nil
}

// Releaser is anything with an exactly-once Destroy.
type Releaser interface {
	Destroy()
}

// ReleaseFunc adapts a plain function to Releaser.
type ReleaseFunc func()

func (f ReleaseFunc) Destroy() { f() }

// Stack releases what was pushed onto it in reverse push order.
type Stack struct {
	items []Releaser
}

func (s *Stack) Push(r Releaser) {
	s.items = append(s.items, r)
}

func (s *Stack) PushFunc(f func()) {
	s.Push(ReleaseFunc(f))
}

func (s *Stack) Len() int {
	return len(s.items)
}

// Release destroys every item, most recently pushed first, and empties the stack.
func (s *Stack) Release() {
	for i := len(s.items) - 1; i >= 0; i-- {
		s.items[i].Destroy()
		s.items[i] = nil
	}
	s.items = s.items[:0]
}
