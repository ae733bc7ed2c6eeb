package buffers

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"vulkan-particles/particle"
	"vulkan-particles/unsafer"
)

// ParticleUsage is the usage of every particle buffer: written and read by
// the compute stage, read as vertices by the graphics stage and filled by a
// transfer at startup.
var ParticleUsage = vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit) |
	vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit) |
	vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)

// ParticleSet holds one device local particle buffer per frame slot.
type ParticleSet struct {
	alloc   *Allocator
	Buffers []Buffer
	Count   int
}

// NewParticleSet uploads particles into frames device local buffers through
// one staging buffer. Every buffer starts with the same content.
func NewParticleSet(alloc *Allocator, particles []particle.Particle, frames int) (*ParticleSet, error) {
	if len(particles) == 0 {
		return nil, fmt.Errorf("no particles to upload")
	}

	bufferSize := setSize(len(particles))

	staging, err := alloc.CreateBuffer(
		bufferSize,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		HostVisible,
	)
	if err != nil {
		return nil, fmt.Errorf("creating the staging buffer: %w", err)
	}
	defer alloc.Destroy(staging)

	pData, err := alloc.Map(staging)
	if err != nil {
		return nil, err
	}
	vk.Memcopy(pData, unsafer.SliceToBytes(particles))
	alloc.Unmap(staging)

	set := &ParticleSet{alloc: alloc, Count: len(particles)}
	for i := 0; i < frames; i++ {
		buf, err := alloc.CreateBuffer(bufferSize, ParticleUsage, DeviceLocal)
		if err != nil {
			set.Destroy()
			return nil, fmt.Errorf("creating particle buffer[%d]: %w", i, err)
		}
		set.Buffers = append(set.Buffers, buf)
	}

	if err := alloc.Copy(staging.Handle, set.Handles(), bufferSize); err != nil {
		set.Destroy()
		return nil, fmt.Errorf("failed to copy staging buffer into particle buffers: %w", err)
	}

	return set, nil
}

// Handles returns the buffer handles indexed by frame slot.
func (s *ParticleSet) Handles() []vk.Buffer {
	handles := make([]vk.Buffer, len(s.Buffers))
	for i, buf := range s.Buffers {
		handles[i] = buf.Handle
	}
	return handles
}

// Size is the byte size of each buffer.
func (s *ParticleSet) Size() vk.DeviceSize {
	return setSize(s.Count)
}

func setSize(count int) vk.DeviceSize {
	return vk.DeviceSize(count) * vk.DeviceSize(particle.Size)
}

// Destroy destroys every buffer of the set.
func (s *ParticleSet) Destroy() {
	for _, buf := range s.Buffers {
		s.alloc.Destroy(buf)
	}
	s.Buffers = nil
}
