// Package buffers allocates the GPU buffers of the renderer: the particle
// storage buffers shared by the compute and the graphics stage and the
// persistently mapped uniform buffers.
package buffers

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// ErrNoMemoryType is returned when no memory type of the device matches a
// buffer's requirements.
var ErrNoMemoryType = errors.New("failed to find suitable memory type")

// HostVisible is the memory the host writes into without flushing.
var HostVisible = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) |
	vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)

// DeviceLocal is the memory the GPU works on.
var DeviceLocal = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

// Buffer is a buffer together with the memory bound to it.
type Buffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

// Allocator creates buffers and runs one-shot transfer commands on the queue.
type Allocator struct {
	device   vk.Device
	physical vk.PhysicalDevice
	queue    vk.Queue
	pool     vk.CommandPool
}

// NewAllocator returns an allocator recording one-shot commands from pool and
// submitting them to queue.
func NewAllocator(
	device vk.Device,
	physical vk.PhysicalDevice,
	queue vk.Queue,
	pool vk.CommandPool,
) *Allocator {
	return &Allocator{
		device:   device,
		physical: physical,
		queue:    queue,
		pool:     pool,
	}
}

// CreateBuffer creates a buffer of size bytes and binds freshly allocated
// memory with properties to it.
func (a *Allocator) CreateBuffer(
	size vk.DeviceSize,
	usage vk.BufferUsageFlags,
	properties vk.MemoryPropertyFlags,
) (Buffer, error) {
	buf := Buffer{Size: size}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	res := vk.CreateBuffer(a.device, &bufferInfo, nil, &buf.Handle)
	if res != vk.Success {
		return Buffer{}, fmt.Errorf("failed to create buffer: %w", vk.Error(res))
	}

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(a.device, buf.Handle, &memRequirements)
	memRequirements.Deref()

	memTypeIndex, err := a.FindMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(a.device, buf.Handle, nil)
		return Buffer{}, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	res = vk.AllocateMemory(a.device, &allocInfo, nil, &buf.Memory)
	if res != vk.Success {
		vk.DestroyBuffer(a.device, buf.Handle, nil)
		return Buffer{}, fmt.Errorf("failed to allocate buffer memory: %w", vk.Error(res))
	}

	res = vk.BindBufferMemory(a.device, buf.Handle, buf.Memory, 0)
	if res != vk.Success {
		a.Destroy(buf)
		return Buffer{}, fmt.Errorf("failed to bind buffer memory: %w", vk.Error(res))
	}

	return buf, nil
}

// FindMemoryType returns the index of the first memory type allowed by
// typeFilter which has all the properties.
func (a *Allocator) FindMemoryType(
	typeFilter uint32,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(a.physical, &memProperties)
	memProperties.Deref()

	flags := make([]vk.MemoryPropertyFlags, memProperties.MemoryTypeCount)
	for i := range flags {
		memType := memProperties.MemoryTypes[i]
		memType.Deref()
		flags[i] = memType.PropertyFlags
	}

	return matchMemoryType(flags, typeFilter, properties)
}

func matchMemoryType(
	types []vk.MemoryPropertyFlags,
	typeFilter uint32,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	for i, flags := range types {
		if typeFilter&(1<<i) == 0 {
			continue
		}

		if flags&properties != properties {
			continue
		}

		return uint32(i), nil
	}

	return 0, ErrNoMemoryType
}

// Map maps the whole buffer. The mapping stays valid until the memory is
// unmapped or freed.
func (a *Allocator) Map(buf Buffer) (unsafe.Pointer, error) {
	var pData unsafe.Pointer
	res := vk.MapMemory(a.device, buf.Memory, 0, buf.Size, 0, &pData)
	if err := vk.Error(res); err != nil {
		return nil, fmt.Errorf("failed to map buffer memory: %w", err)
	}
	return pData, nil
}

// Unmap unmaps memory mapped by Map.
func (a *Allocator) Unmap(buf Buffer) {
	vk.UnmapMemory(a.device, buf.Memory)
}

// BeginSingleTime allocates a primary command buffer and starts recording it
// for one submission.
func (a *Allocator) BeginSingleTime() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        a.pool,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	res := vk.AllocateCommandBuffers(a.device, &allocInfo, commandBuffers)
	if res != vk.Success {
		return nil, fmt.Errorf("failed to allocate command buffer: %w", vk.Error(res))
	}
	commandBuffer := commandBuffers[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	res = vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if res != vk.Success {
		vk.FreeCommandBuffers(a.device, a.pool, 1, commandBuffers)
		return nil, fmt.Errorf("failed to begin command buffer: %w", vk.Error(res))
	}

	return commandBuffer, nil
}

// EndSingleTime submits the command buffer, waits for the queue to go idle
// and frees it.
func (a *Allocator) EndSingleTime(commandBuffer vk.CommandBuffer) error {
	commandBuffers := []vk.CommandBuffer{commandBuffer}

	defer func() {
		vk.FreeCommandBuffers(a.device, a.pool, 1, commandBuffers)
	}()

	res := vk.EndCommandBuffer(commandBuffer)
	if res != vk.Success {
		return fmt.Errorf("failed end command buffer: %w", vk.Error(res))
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    commandBuffers,
	}

	res = vk.QueueSubmit(a.queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence)
	if res != vk.Success {
		return fmt.Errorf("failed to submit to queue: %w", vk.Error(res))
	}

	res = vk.QueueWaitIdle(a.queue)
	if res != vk.Success {
		return fmt.Errorf("failed to wait on queue idle: %w", vk.Error(res))
	}

	return nil
}

// Copy copies size bytes from src to every buffer in dst with one submission.
func (a *Allocator) Copy(src vk.Buffer, dst []vk.Buffer, size vk.DeviceSize) error {
	commandBuffer, err := a.BeginSingleTime()
	if err != nil {
		return fmt.Errorf("failed to begin single time commands: %w", err)
	}

	for _, c := range fanOut(dst, size) {
		vk.CmdCopyBuffer(commandBuffer, src, c.dst, 1, []vk.BufferCopy{c.region})
	}

	return a.EndSingleTime(commandBuffer)
}

type bufferCopy struct {
	dst    vk.Buffer
	region vk.BufferCopy
}

// fanOut returns one whole-buffer copy per destination, in order.
func fanOut(dst []vk.Buffer, size vk.DeviceSize) []bufferCopy {
	copies := make([]bufferCopy, len(dst))
	for i, buf := range dst {
		copies[i] = bufferCopy{
			dst: buf,
			region: vk.BufferCopy{
				SrcOffset: 0,
				DstOffset: 0,
				Size:      size,
			},
		}
	}
	return copies
}

// Destroy destroys the buffer and then frees its memory.
func (a *Allocator) Destroy(buf Buffer) {
	if buf.Handle != vk.Buffer(vk.NullHandle) {
		vk.DestroyBuffer(a.device, buf.Handle, nil)
	}
	if buf.Memory != vk.DeviceMemory(vk.NullHandle) {
		vk.FreeMemory(a.device, buf.Memory, nil)
	}
}
