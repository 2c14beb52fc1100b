package memory

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

// Buffer owns a buffer handle and its memory.
type Buffer struct {
	Handle core1_0.Buffer
	Memory core1_0.DeviceMemory
	Size   int
}

func (a *Allocator) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.Newf("create buffer: invalid size %d", size)
	}

	handle, _, err := a.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	buffer := &Buffer{Handle: handle, Size: size}
	buffer.Memory, err = a.allocate(handle.MemoryRequirements(), properties)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	_, err = handle.BindBufferMemory(buffer.Memory, 0)
	if err != nil {
		buffer.Destroy()
		return nil, errors.Wrap(err, "bind buffer memory")
	}

	return buffer, nil
}

// Write encodes data with binary.Write into the mapped buffer at offset.
// The buffer must be host visible.
func (b *Buffer) Write(offset int, data any) error {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return errors.Wrap(err, "encode buffer data")
	}

	return b.WriteBytes(offset, buf.Bytes())
}

func (b *Buffer) WriteBytes(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > b.Size {
		return errors.Newf("write %d bytes at %d overflows buffer of %d bytes", len(data), offset, b.Size)
	}

	memoryPtr, _, err := b.Memory.Map(offset, len(data), 0)
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	defer b.Memory.Unmap()

	copy(unsafe.Slice((*byte)(memoryPtr), len(data)), data)
	return nil
}

// Destroy releases the buffer before its memory. Calling it again is a no-op.
func (b *Buffer) Destroy() {
	if b == nil {
		return
	}
	if b.Handle != nil {
		b.Handle.Destroy(nil)
		b.Handle = nil
	}
	if b.Memory != nil {
		b.Memory.Free(nil)
		b.Memory = nil
	}
}
