package descriptor

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Binder owns the descriptor pool and the per-slot compute descriptor sets.
// The sets are written once and never updated afterwards.
type Binder struct {
	device vk.Device
	pool   vk.DescriptorPool
	sets   []vk.DescriptorSet
}

// New allocates one set per uniform buffer from layout and writes Plan into
// them. uniforms and storage are indexed by frame slot and must have the same
// length.
func New(
	device vk.Device,
	layout vk.DescriptorSetLayout,
	uniforms []vk.Buffer,
	uniformSize vk.DeviceSize,
	storage []vk.Buffer,
	storageSize vk.DeviceSize,
) (*Binder, error) {
	frames := len(uniforms)
	if frames == 0 || len(storage) != frames {
		return nil, fmt.Errorf(
			"need the same number of uniform and storage buffers, got %d and %d",
			len(uniforms), len(storage),
		)
	}

	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: uint32(frames),
		},
		{
			Type:            vk.DescriptorTypeStorageBuffer,
			DescriptorCount: uint32(2 * frames),
		},
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       uint32(frames),
	}

	b := &Binder{device: device}

	res := vk.CreateDescriptorPool(device, &poolInfo, nil, &b.pool)
	if res != vk.Success {
		return nil, fmt.Errorf("failed to create descriptor pool: %w", vk.Error(res))
	}

	layouts := make([]vk.DescriptorSetLayout, frames)
	for i := range layouts {
		layouts[i] = layout
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     b.pool,
		DescriptorSetCount: uint32(frames),
		PSetLayouts:        layouts,
	}

	b.sets = make([]vk.DescriptorSet, frames)

	res = vk.AllocateDescriptorSets(device, &allocInfo, &b.sets[0])
	if res != vk.Success {
		b.Destroy()
		return nil, fmt.Errorf("failed to allocate descriptor sets: %w", vk.Error(res))
	}

	for _, slot := range Plan(frames) {
		descriptorWrites := []vk.WriteDescriptorSet{
			bufferWrite(b.sets[slot.Slot], UniformBinding, vk.DescriptorTypeUniformBuffer,
				uniforms[slot.Uniform], uniformSize),
			bufferWrite(b.sets[slot.Slot], ReadBinding, vk.DescriptorTypeStorageBuffer,
				storage[slot.Read], storageSize),
			bufferWrite(b.sets[slot.Slot], WriteBinding, vk.DescriptorTypeStorageBuffer,
				storage[slot.Write], storageSize),
		}

		vk.UpdateDescriptorSets(
			device,
			uint32(len(descriptorWrites)),
			descriptorWrites,
			0,
			nil,
		)
	}

	return b, nil
}

func bufferWrite(
	set vk.DescriptorSet,
	binding uint32,
	descriptorType vk.DescriptorType,
	buffer vk.Buffer,
	size vk.DeviceSize,
) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorType:  descriptorType,
		DescriptorCount: 1,
		PBufferInfo: []vk.DescriptorBufferInfo{
			{
				Buffer: buffer,
				Offset: 0,
				Range:  size,
			},
		},
	}
}

// Sets returns the descriptor sets indexed by frame slot.
func (b *Binder) Sets() []vk.DescriptorSet {
	return b.sets
}

// Destroy destroys the pool which frees every set allocated from it.
func (b *Binder) Destroy() {
	if b.pool != vk.DescriptorPool(vk.NullHandle) {
		vk.DestroyDescriptorPool(b.device, b.pool, nil)
		b.pool = vk.DescriptorPool(vk.NullHandle)
	}
	b.sets = nil
}
