package renderer

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"vulkan-particles/swapchain"
)

func (r *Renderer) recordCompute(slot int) error {
	commandBuffer := r.computeCommands[slot]

	vk.ResetCommandBuffer(commandBuffer, 0)

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	res := vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("cannot begin the compute command buffer: %w", err)
	}

	vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointCompute, r.compute.Handle)
	vk.CmdBindDescriptorSets(
		commandBuffer,
		vk.PipelineBindPointCompute,
		r.compute.Layout,
		0,
		1,
		[]vk.DescriptorSet{r.binder.Sets()[slot]},
		0,
		nil,
	)
	vk.CmdDispatch(commandBuffer, r.dispatchGroups, 1, 1)

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("recording compute commands failed: %w", err)
	}
	return nil
}

// recordGraphics records the draw of slot's particles into the swapchain
// image: transition to color attachment, clear to black, draw every particle
// as a point and transition for presentation.
func (r *Renderer) recordGraphics(slot int, imageIndex uint32) error {
	commandBuffer := r.graphicsCommands[slot]
	image := r.swapchain.Images[imageIndex]
	extent := r.swapchain.Extent

	vk.ResetCommandBuffer(commandBuffer, 0)

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	res := vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("cannot begin the graphics command buffer: %w", err)
	}

	// The acquire fence was waited on by the host, nothing precedes the
	// transition on the device.
	r.transitionImage(commandBuffer, image, layoutTransition{
		oldLayout: vk.ImageLayoutUndefined,
		newLayout: vk.ImageLayoutColorAttachmentOptimal,
		srcStage:  stageNone,
		srcAccess: accessNone,
		dstStage:  vk.PipelineStageFlags2(vk.PipelineStageColorAttachmentOutputBit),
		dstAccess: vk.AccessFlags2(vk.AccessColorAttachmentWriteBit),
	})

	renderArea := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}

	colorAttachment := vk.RenderingAttachmentInfo{
		SType:       vk.StructureTypeRenderingAttachmentInfo,
		ImageView:   r.swapchain.Views[imageIndex],
		ImageLayout: vk.ImageLayoutColorAttachmentOptimal,
		LoadOp:      vk.AttachmentLoadOpClear,
		StoreOp:     vk.AttachmentStoreOpStore,
		ClearValue:  vk.NewClearValue([]float32{0, 0, 0, 1}),
	}

	renderingInfo := vk.RenderingInfo{
		SType:                vk.StructureTypeRenderingInfo,
		RenderArea:           renderArea,
		LayerCount:           1,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.RenderingAttachmentInfo{colorAttachment},
	}

	r.cmds.beginRendering(commandBuffer, &renderingInfo)
	vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, r.graphics.Handle)

	viewport := vk.Viewport{
		X: 0, Y: 0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{renderArea})

	vk.CmdBindVertexBuffers(
		commandBuffer,
		0,
		1,
		[]vk.Buffer{r.particles.Buffers[slot].Handle},
		[]vk.DeviceSize{0},
	)
	vk.CmdDraw(commandBuffer, r.particleCount, 1, 0, 0)
	r.cmds.endRendering(commandBuffer)

	// Present happens after the host saw the timeline signal, which covers
	// every command of the submission.
	r.transitionImage(commandBuffer, image, layoutTransition{
		oldLayout: vk.ImageLayoutColorAttachmentOptimal,
		newLayout: vk.ImageLayoutPresentSrc,
		srcStage:  vk.PipelineStageFlags2(vk.PipelineStageColorAttachmentOutputBit),
		srcAccess: vk.AccessFlags2(vk.AccessColorAttachmentWriteBit),
		dstStage:  stageNone,
		dstAccess: accessNone,
	})

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("recording graphics commands failed: %w", err)
	}
	return nil
}

// VK_PIPELINE_STAGE_2_NONE and VK_ACCESS_2_NONE. The legacy stage and
// access bits share their values with the synchronization2 flags.
const (
	stageNone  vk.PipelineStageFlags2 = 0
	accessNone vk.AccessFlags2        = 0
)

type layoutTransition struct {
	oldLayout, newLayout vk.ImageLayout
	srcStage, dstStage   vk.PipelineStageFlags2
	srcAccess, dstAccess vk.AccessFlags2
}

func imageBarrier(image vk.Image, t layoutTransition) vk.ImageMemoryBarrier2 {
	return vk.ImageMemoryBarrier2{
		SType:               vk.StructureTypeImageMemoryBarrier2,
		SrcStageMask:        t.srcStage,
		SrcAccessMask:       t.srcAccess,
		DstStageMask:        t.dstStage,
		DstAccessMask:       t.dstAccess,
		OldLayout:           t.oldLayout,
		NewLayout:           t.newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    swapchain.ColorRange(),
	}
}

func (r *Renderer) transitionImage(commandBuffer vk.CommandBuffer, image vk.Image, t layoutTransition) {
	dependency := vk.DependencyInfo{
		SType:                   vk.StructureTypeDependencyInfo,
		ImageMemoryBarrierCount: 1,
		PImageMemoryBarriers:    []vk.ImageMemoryBarrier2{imageBarrier(image, t)},
	}
	r.cmds.pipelineBarrier2(commandBuffer, &dependency)
}
