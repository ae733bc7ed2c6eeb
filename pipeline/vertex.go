package pipeline

import (
	vk "github.com/goki/vulkan"

	"vulkan-particles/particle"
)

// VertexBindingDescription describes the particle buffer as a per-vertex
// stream with one particle per vertex.
func VertexBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    particle.Size,
		InputRate: vk.VertexInputRateVertex,
	}
}

// VertexAttributeDescriptions binds the position to location 0 and the color
// to location 1. The velocity is only used by the compute stage.
func VertexAttributeDescriptions() [2]vk.VertexInputAttributeDescription {
	return [2]vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   particle.PositionOffset,
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   particle.ColorOffset,
		},
	}
}
