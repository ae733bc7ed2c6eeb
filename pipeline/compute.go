package pipeline

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"vulkan-particles/descriptor"
	"vulkan-particles/shaders"
)

// Compute is the pipeline running compMain together with the descriptor set
// layout its sets are allocated with.
type Compute struct {
	device vk.Device

	Handle    vk.Pipeline
	Layout    vk.PipelineLayout
	SetLayout vk.DescriptorSetLayout
}

// SetLayoutBindings are the bindings of the compute descriptor set: the
// uniform buffer, the particles read and the particles written.
func SetLayoutBindings() []vk.DescriptorSetLayoutBinding {
	stage := vk.ShaderStageFlags(vk.ShaderStageComputeBit)

	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         descriptor.UniformBinding,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      stage,
		},
		{
			Binding:         descriptor.ReadBinding,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			StageFlags:      stage,
		},
		{
			Binding:         descriptor.WriteBinding,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			StageFlags:      stage,
		},
	}
}

// NewCompute builds the descriptor set layout, the pipeline layout and the
// compute pipeline.
func NewCompute(device vk.Device, module shaders.Module) (*Compute, error) {
	c := &Compute{device: device}

	bindings := SetLayoutBindings()
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	res := vk.CreateDescriptorSetLayout(device, &layoutInfo, nil, &c.SetLayout)
	if res != vk.Success {
		return nil, fmt.Errorf("creating descriptor set layout: %w", vk.Error(res))
	}

	pipelineLayoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{c.SetLayout},
	}

	res = vk.CreatePipelineLayout(device, &pipelineLayoutInfo, nil, &c.Layout)
	if err := vk.Error(res); err != nil {
		vk.DestroyDescriptorSetLayout(device, c.SetLayout, nil)
		return nil, fmt.Errorf("failed to create compute pipeline layout: %w", err)
	}

	shaderModule, err := createShaderModule(device, module)
	if err != nil {
		c.Destroy()
		return nil, err
	}
	defer vk.DestroyShaderModule(device, shaderModule, nil)

	pipelineInfo := vk.ComputePipelineCreateInfo{
		SType: vk.StructureTypeComputePipelineCreateInfo,
		Stage: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageComputeBit,
			Module: shaderModule,
			PName:  shaders.ComputeEntry,
		},
		Layout:             c.Layout,
		BasePipelineHandle: vk.Pipeline(vk.NullHandle),
		BasePipelineIndex:  -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res = vk.CreateComputePipelines(
		device,
		vk.PipelineCache(vk.NullHandle),
		1,
		[]vk.ComputePipelineCreateInfo{pipelineInfo},
		nil,
		pipelines,
	)
	if err := vk.Error(res); err != nil {
		c.Destroy()
		return nil, fmt.Errorf("failed to create compute pipeline: %w", err)
	}
	c.Handle = pipelines[0]

	return c, nil
}

// Destroy destroys the pipeline, its layout and the descriptor set layout.
func (c *Compute) Destroy() {
	if c.Handle != vk.Pipeline(vk.NullHandle) {
		vk.DestroyPipeline(c.device, c.Handle, nil)
		c.Handle = vk.Pipeline(vk.NullHandle)
	}
	vk.DestroyPipelineLayout(c.device, c.Layout, nil)
	vk.DestroyDescriptorSetLayout(c.device, c.SetLayout, nil)
}
