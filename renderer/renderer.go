// Package renderer runs the particle frames on a Vulkan device. It owns every
// per-frame resource and implements the GPU side of the frame loop.
package renderer

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"go.uber.org/zap"

	"vulkan-particles/buffers"
	"vulkan-particles/config"
	"vulkan-particles/descriptor"
	"vulkan-particles/device"
	"vulkan-particles/frame"
	"vulkan-particles/particle"
	"vulkan-particles/pipeline"
	"vulkan-particles/shaders"
	"vulkan-particles/swapchain"
)

var _ frame.GPU = (*Renderer)(nil)

// ErrWorkGroupMismatch is returned when the configured work group size is not
// the local size the compute shader was compiled with.
var ErrWorkGroupMismatch = errors.New("work group size does not match the compute shader")

// Setup is everything New needs. The device, the physical device and the
// surface stay owned by the caller and must outlive the renderer.
type Setup struct {
	// Instance and GetInstanceProcAddr resolve the device commands the
	// binding has no wrappers for.
	Instance            vk.Instance
	GetInstanceProcAddr unsafe.Pointer

	Device    *device.Logical
	Physical  *device.Physical
	Surface   vk.Surface
	Shader    shaders.Module
	Particles []particle.Particle

	// Width and Height are the framebuffer size the first swapchain is made for.
	Width  int
	Height int

	Config config.Config
	Logger *zap.Logger
}

// Renderer implements frame.GPU with one queue, one timeline semaphore and
// per slot fences and command buffers.
type Renderer struct {
	log    *zap.Logger
	device *device.Logical

	swapchain *swapchain.Manager
	graphics  *pipeline.Graphics
	compute   *pipeline.Compute
	alloc     *buffers.Allocator
	particles *buffers.ParticleSet
	uniforms  *buffers.UniformSet
	binder    *descriptor.Binder

	shader      shaders.Module
	commandPool vk.CommandPool
	cmds        *deviceCommands

	computeCommands  []vk.CommandBuffer
	graphicsCommands []vk.CommandBuffer

	// fences[i] is signaled when the image acquired for slot i is ready.
	fences   []vk.Fence
	timeline vk.Semaphore

	particleCount  uint32
	dispatchGroups uint32
}

// New creates the swapchain, the particle and uniform buffers, both pipelines,
// the descriptor sets and the synchronization objects. On failure everything
// created so far is destroyed again.
func New(setup Setup) (r *Renderer, err error) {
	cfg := setup.Config
	if cfg.Particles.WorkGroupSize != shaders.LocalSizeX {
		return nil, fmt.Errorf("%w: configured %d, compiled %d",
			ErrWorkGroupMismatch, cfg.Particles.WorkGroupSize, shaders.LocalSizeX)
	}
	if len(setup.Particles) != int(cfg.Particles.Count) {
		return nil, fmt.Errorf("got %d particles, configured %d",
			len(setup.Particles), cfg.Particles.Count)
	}

	log := setup.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cmds, err := loadDeviceCommands(setup.GetInstanceProcAddr, setup.Instance, setup.Device.Handle)
	if err != nil {
		return nil, fmt.Errorf("loadDeviceCommands: %w", err)
	}

	r = &Renderer{
		log:            log,
		device:         setup.Device,
		cmds:           cmds,
		shader:         setup.Shader,
		particleCount:  cfg.Particles.Count,
		dispatchGroups: cfg.DispatchGroups(),
	}
	defer func() {
		if err != nil {
			r.Destroy()
			r = nil
		}
	}()

	frames := cfg.Frames.InFlight
	handle := setup.Device.Handle

	r.swapchain = swapchain.New(handle, setup.Physical.Handle, setup.Surface, log)
	if err := r.swapchain.Create(setup.Width, setup.Height); err != nil {
		return nil, fmt.Errorf("createSwapChain: %w", err)
	}
	if err := r.swapchain.CreateViews(); err != nil {
		return nil, fmt.Errorf("createImageViews: %w", err)
	}

	if err := r.createCommandPool(); err != nil {
		return nil, fmt.Errorf("createCommandPool: %w", err)
	}

	r.alloc = buffers.NewAllocator(
		handle, setup.Physical.Handle, setup.Device.Queue, r.commandPool,
	)

	if r.particles, err = buffers.NewParticleSet(r.alloc, setup.Particles, frames); err != nil {
		return nil, fmt.Errorf("createParticleBuffers: %w", err)
	}

	uniformSize := vk.DeviceSize(unsafe.Sizeof(frame.Uniform{}))
	if r.uniforms, err = buffers.NewUniformSet(r.alloc, frames, uniformSize); err != nil {
		return nil, fmt.Errorf("createUniformBuffers: %w", err)
	}

	if r.compute, err = pipeline.NewCompute(handle, setup.Shader); err != nil {
		return nil, fmt.Errorf("createComputePipeline: %w", err)
	}

	if r.graphics, err = pipeline.NewGraphics(handle, setup.Shader, r.swapchain.Format); err != nil {
		return nil, fmt.Errorf("createGraphicsPipeline: %w", err)
	}

	r.binder, err = descriptor.New(
		handle,
		r.compute.SetLayout,
		r.uniforms.Handles(), r.uniforms.Size(),
		r.particles.Handles(), r.particles.Size(),
	)
	if err != nil {
		return nil, fmt.Errorf("createDescriptorSets: %w", err)
	}

	if r.computeCommands, err = r.allocateCommandBuffers(frames); err != nil {
		return nil, fmt.Errorf("createComputeCommandBuffers: %w", err)
	}
	if r.graphicsCommands, err = r.allocateCommandBuffers(frames); err != nil {
		return nil, fmt.Errorf("createCommandBuffers: %w", err)
	}

	if err := r.createSyncObjects(frames); err != nil {
		return nil, fmt.Errorf("createSyncObjects: %w", err)
	}

	log.Info("renderer ready",
		zap.Uint32("particles", r.particleCount),
		zap.Uint32("dispatch_groups", r.dispatchGroups),
		zap.Int("frames_in_flight", frames),
		zap.Int("swapchain_images", len(r.swapchain.Images)),
	)

	return r, nil
}

func (r *Renderer) createCommandPool() error {
	poolInfo := vk.CommandPoolCreateInfo{
		SType: vk.StructureTypeCommandPoolCreateInfo,
		Flags: vk.CommandPoolCreateFlags(
			vk.CommandPoolCreateResetCommandBufferBit,
		),
		QueueFamilyIndex: r.device.QueueFamily,
	}

	var commandPool vk.CommandPool
	res := vk.CreateCommandPool(r.device.Handle, &poolInfo, nil, &commandPool)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to create command pool: %w", err)
	}
	r.commandPool = commandPool

	return nil
}

func (r *Renderer) allocateCommandBuffers(count int) ([]vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	res := vk.AllocateCommandBuffers(r.device.Handle, &allocInfo, commandBuffers)
	if err := vk.Error(res); err != nil {
		return nil, fmt.Errorf("failed to allocate command buffers: %w", err)
	}

	return commandBuffers, nil
}

// createSyncObjects creates one unsignaled fence per slot, used for image
// acquisition, and the timeline semaphore starting at zero.
func (r *Renderer) createSyncObjects(frames int) error {
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}

	for i := 0; i < frames; i++ {
		var fence vk.Fence
		if err := vk.Error(
			vk.CreateFence(r.device.Handle, &fenceInfo, nil, &fence),
		); err != nil {
			return fmt.Errorf("failed to create fence %d: %w", i, err)
		}
		r.fences = append(r.fences, fence)
	}

	typeInfo := vk.SemaphoreTypeCreateInfo{
		SType:         vk.StructureTypeSemaphoreTypeCreateInfo,
		SemaphoreType: vk.SemaphoreTypeTimeline,
		InitialValue:  0,
	}
	typeInfoRef, typeInfoAllocs := typeInfo.PassRef()
	defer typeInfoAllocs.Free()

	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: unsafe.Pointer(typeInfoRef),
	}

	var timeline vk.Semaphore
	if err := vk.Error(
		vk.CreateSemaphore(r.device.Handle, &semaphoreInfo, nil, &timeline),
	); err != nil {
		return fmt.Errorf("failed to create timeline semaphore: %w", err)
	}
	r.timeline = timeline

	return nil
}

// Extent is the current swapchain extent.
func (r *Renderer) Extent() vk.Extent2D {
	return r.swapchain.Extent
}

// Destroy waits for the device to go idle and destroys everything New
// created, children before their parents. The device itself is left alone.
func (r *Renderer) Destroy() {
	dev := r.device.Handle
	if err := r.device.WaitIdle(); err != nil {
		r.log.Warn("waiting for the device before destroying the renderer", zap.Error(err))
	}

	if r.timeline != vk.Semaphore(vk.NullHandle) {
		vk.DestroySemaphore(dev, r.timeline, nil)
		r.timeline = vk.Semaphore(vk.NullHandle)
	}
	for _, fence := range r.fences {
		vk.DestroyFence(dev, fence, nil)
	}
	r.fences = nil

	if r.binder != nil {
		r.binder.Destroy()
	}
	if r.graphics != nil {
		r.graphics.Destroy()
	}
	if r.compute != nil {
		r.compute.Destroy()
	}
	if r.uniforms != nil {
		r.uniforms.Destroy()
	}
	if r.particles != nil {
		r.particles.Destroy()
	}

	// Destroying the pool frees the command buffers allocated from it.
	if r.commandPool != vk.CommandPool(vk.NullHandle) {
		vk.DestroyCommandPool(dev, r.commandPool, nil)
		r.commandPool = vk.CommandPool(vk.NullHandle)
	}
	r.computeCommands = nil
	r.graphicsCommands = nil

	if r.swapchain != nil {
		r.swapchain.Destroy()
	}
}
