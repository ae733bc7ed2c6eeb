package buffers

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// UniformSet holds one host visible uniform buffer per frame slot. The
// buffers stay mapped for their whole life.
type UniformSet struct {
	alloc   *Allocator
	Buffers []Buffer
	mapped  []unsafe.Pointer
	size    vk.DeviceSize
}

// NewUniformSet creates frames uniform buffers of size bytes and maps them.
func NewUniformSet(alloc *Allocator, frames int, size vk.DeviceSize) (*UniformSet, error) {
	set := &UniformSet{alloc: alloc, size: size}

	for i := 0; i < frames; i++ {
		buf, err := alloc.CreateBuffer(
			size,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			HostVisible,
		)
		if err != nil {
			set.Destroy()
			return nil, fmt.Errorf("creating buffer[%d]: %w", i, err)
		}
		set.Buffers = append(set.Buffers, buf)

		pData, err := alloc.Map(buf)
		if err != nil {
			set.Destroy()
			return nil, fmt.Errorf("mapping buffer[%d]: %w", i, err)
		}
		set.mapped = append(set.mapped, pData)
	}

	return set, nil
}

// Write copies data into the buffer of slot. The memory is coherent so the
// write is visible to the next submission.
func (s *UniformSet) Write(slot int, data []byte) error {
	if slot < 0 || slot >= len(s.mapped) {
		return fmt.Errorf("uniform slot %d out of range [0, %d)", slot, len(s.mapped))
	}
	if vk.DeviceSize(len(data)) > s.size {
		return fmt.Errorf("uniform data of %d bytes exceeds the buffer size %d", len(data), s.size)
	}

	vk.Memcopy(s.mapped[slot], data)
	return nil
}

// Handles returns the buffer handles indexed by frame slot.
func (s *UniformSet) Handles() []vk.Buffer {
	handles := make([]vk.Buffer, len(s.Buffers))
	for i, buf := range s.Buffers {
		handles[i] = buf.Handle
	}
	return handles
}

// Size is the byte size of each buffer.
func (s *UniformSet) Size() vk.DeviceSize {
	return s.size
}

// Destroy unmaps and destroys every buffer of the set.
func (s *UniformSet) Destroy() {
	for i, buf := range s.Buffers {
		if i < len(s.mapped) {
			s.alloc.Unmap(buf)
		}
		s.alloc.Destroy(buf)
	}
	s.Buffers = nil
	s.mapped = nil
}
