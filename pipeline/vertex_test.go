package pipeline

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"

	"vulkan-particles/descriptor"
)

func TestVertexLayout(t *testing.T) {
	binding := VertexBindingDescription()
	assert.Equal(t, uint32(32), binding.Stride)
	assert.Equal(t, vk.VertexInputRateVertex, binding.InputRate)

	attrs := VertexAttributeDescriptions()

	assert.Equal(t, uint32(0), attrs[0].Location)
	assert.Equal(t, vk.FormatR32g32Sfloat, attrs[0].Format)
	assert.Equal(t, uint32(0), attrs[0].Offset)

	assert.Equal(t, uint32(1), attrs[1].Location)
	assert.Equal(t, vk.FormatR32g32b32a32Sfloat, attrs[1].Format)
	assert.Equal(t, uint32(16), attrs[1].Offset)
}

func TestSetLayoutBindings(t *testing.T) {
	bindings := SetLayoutBindings()
	assert.Len(t, bindings, 3)

	types := map[uint32]vk.DescriptorType{}
	for _, b := range bindings {
		types[b.Binding] = b.DescriptorType
		assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageComputeBit), b.StageFlags)
		assert.Equal(t, uint32(1), b.DescriptorCount)
	}

	assert.Equal(t, vk.DescriptorTypeUniformBuffer, types[descriptor.UniformBinding])
	assert.Equal(t, vk.DescriptorTypeStorageBuffer, types[descriptor.ReadBinding])
	assert.Equal(t, vk.DescriptorTypeStorageBuffer, types[descriptor.WriteBinding])
}
