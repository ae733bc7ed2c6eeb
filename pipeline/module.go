// Package pipeline builds the graphics pipeline drawing the particles as
// points and the compute pipeline moving them.
package pipeline

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"vulkan-particles/shaders"
)

func shaderModuleInfo(module shaders.Module) vk.ShaderModuleCreateInfo {
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(module.Size()),
		PCode:    module.Words(),
	}
}

func createShaderModule(device vk.Device, module shaders.Module) (vk.ShaderModule, error) {
	createInfo := shaderModuleInfo(module)

	var shaderModule vk.ShaderModule
	res := vk.CreateShaderModule(device, &createInfo, nil, &shaderModule)
	if err := vk.Error(res); err != nil {
		return shaderModule, fmt.Errorf("creating shader module from %q: %w", module.Path, err)
	}
	return shaderModule, nil
}
