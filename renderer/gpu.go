package renderer

import (
	"fmt"
	"math"
	"time"
	"unsafe"

	vk "github.com/goki/vulkan"
	"go.uber.org/zap"

	"vulkan-particles/frame"
	"vulkan-particles/pipeline"
	"vulkan-particles/unsafer"
)

// AcquireImage acquires the next swapchain image and has slot's fence
// signaled once the image can be rendered into.
func (r *Renderer) AcquireImage(slot int) (uint32, frame.SwapchainStatus, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(
		r.device.Handle,
		r.swapchain.Handle,
		math.MaxUint64,
		vk.Semaphore(vk.NullHandle),
		r.fences[slot],
		&imageIndex,
	)

	status, err := swapchainStatus(res)
	if err != nil {
		return 0, status, fmt.Errorf("failed to acquire swap chain image: %w", err)
	}
	return imageIndex, status, nil
}

// WaitFence waits up to timeout for slot's fence. It reports false when the
// timeout expired first.
func (r *Renderer) WaitFence(slot int, timeout time.Duration) (bool, error) {
	res := vk.WaitForFences(
		r.device.Handle,
		1,
		[]vk.Fence{r.fences[slot]},
		vk.True,
		uint64(timeout.Nanoseconds()),
	)
	return waitResult(res)
}

// ResetFence returns slot's fence to the unsignaled state.
func (r *Renderer) ResetFence(slot int) error {
	res := vk.ResetFences(r.device.Handle, 1, []vk.Fence{r.fences[slot]})
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to reset fence %d: %w", slot, err)
	}
	return nil
}

// WriteUniform copies u into slot's mapped uniform buffer.
func (r *Renderer) WriteUniform(slot int, u frame.Uniform) error {
	return r.uniforms.Write(slot, unsafer.StructToBytes(&u))
}

// SubmitCompute records and submits slot's dispatch. It runs once the
// timeline reaches wait and raises it to signal when done.
func (r *Renderer) SubmitCompute(slot int, wait, signal uint64) error {
	if err := r.recordCompute(slot); err != nil {
		return err
	}

	return r.submit(
		r.computeCommands[slot],
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		wait, signal,
	)
}

// SubmitGraphics records and submits the draw of slot's particles into the
// swapchain image. Vertex input waits for the timeline to reach wait.
func (r *Renderer) SubmitGraphics(slot int, image uint32, wait, signal uint64) error {
	if err := r.recordGraphics(slot, image); err != nil {
		return err
	}

	return r.submit(
		r.graphicsCommands[slot],
		vk.PipelineStageFlags(vk.PipelineStageVertexInputBit),
		wait, signal,
	)
}

func (r *Renderer) submit(
	commandBuffer vk.CommandBuffer,
	waitStage vk.PipelineStageFlags,
	wait, signal uint64,
) error {
	timelineInfo := vk.TimelineSemaphoreSubmitInfo{
		SType:                     vk.StructureTypeTimelineSemaphoreSubmitInfo,
		WaitSemaphoreValueCount:   1,
		PWaitSemaphoreValues:      []uint64{wait},
		SignalSemaphoreValueCount: 1,
		PSignalSemaphoreValues:    []uint64{signal},
	}
	timelineInfoRef, timelineInfoAllocs := timelineInfo.PassRef()
	defer timelineInfoAllocs.Free()

	semaphores := []vk.Semaphore{r.timeline}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		PNext:                unsafe.Pointer(timelineInfoRef),
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      semaphores,
		PWaitDstStageMask:    []vk.PipelineStageFlags{waitStage},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    semaphores,
	}

	res := vk.QueueSubmit(r.device.Queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("queue submit error (wait %d, signal %d): %w", wait, signal, err)
	}
	return nil
}

// WaitTimeline waits up to timeout for the timeline to reach value. It
// reports false when the timeout expired first.
func (r *Renderer) WaitTimeline(value uint64, timeout time.Duration) (bool, error) {
	waitInfo := vk.SemaphoreWaitInfo{
		SType:          vk.StructureTypeSemaphoreWaitInfo,
		SemaphoreCount: 1,
		PSemaphores:    []vk.Semaphore{r.timeline},
		PValues:        []uint64{value},
	}

	res := r.cmds.wait(&waitInfo, uint64(timeout.Nanoseconds()))
	return waitResult(res)
}

// Present queues image for presentation. The host already waited for the
// frame's graphics work so no semaphore is involved.
func (r *Renderer) Present(image uint32) (frame.SwapchainStatus, error) {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{r.swapchain.Handle},
		PImageIndices:  []uint32{image},
	}

	res := vk.QueuePresent(r.device.Queue, &presentInfo)

	status, err := swapchainStatus(res)
	if err != nil {
		return status, fmt.Errorf("failed to present swap chain image: %w", err)
	}
	return status, nil
}

// RecreateSwapchain rebuilds the swapchain for a framebuffer of width x
// height. The graphics pipeline is rebuilt only when the surface format
// changed with it.
func (r *Renderer) RecreateSwapchain(width, height int) error {
	format := r.swapchain.Format

	if err := r.swapchain.Recreate(width, height); err != nil {
		return err
	}

	if r.swapchain.Format == format {
		return nil
	}

	r.log.Info("surface format changed, rebuilding the graphics pipeline",
		zap.Int32("old", int32(format)),
		zap.Int32("new", int32(r.swapchain.Format)),
	)

	graphics, err := pipeline.NewGraphics(r.device.Handle, r.shader, r.swapchain.Format)
	if err != nil {
		return fmt.Errorf("createGraphicsPipeline: %w", err)
	}
	r.graphics.Destroy()
	r.graphics = graphics

	return nil
}

// WaitIdle waits until the device finished all submitted work.
func (r *Renderer) WaitIdle() error {
	return r.device.WaitIdle()
}

// swapchainStatus maps acquire and present results onto frame statuses.
// Anything but success, suboptimal and out of date is an error.
func swapchainStatus(res vk.Result) (frame.SwapchainStatus, error) {
	switch res {
	case vk.Success:
		return frame.StatusOK, nil
	case vk.Suboptimal:
		return frame.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return frame.StatusOutOfDate, nil
	default:
		return frame.StatusOK, vk.Error(res)
	}
}

// waitResult maps the result of a fence or semaphore wait: success is done,
// timeout is not done yet, anything else is an error.
func waitResult(res vk.Result) (bool, error) {
	switch res {
	case vk.Success:
		return true, nil
	case vk.Timeout:
		return false, nil
	default:
		return false, vk.Error(res)
	}
}
