package renderer

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulkan-particles/config"
	"vulkan-particles/device"
	"vulkan-particles/particle"
	"vulkan-particles/swapchain"
)

func TestCommandNames(t *testing.T) {
	assert.Equal(t,
		[]string{"vkCmdBeginRendering", "vkCmdBeginRenderingKHR"},
		commandNames("vkCmdBeginRendering"),
	)
}

func TestLoadDeviceCommandsWithoutLoader(t *testing.T) {
	cmds, err := loadDeviceCommands(nil, vk.Instance(vk.NullHandle), vk.Device(vk.NullHandle))
	assert.ErrorIs(t, err, ErrMissingCommand)
	assert.Nil(t, cmds)
}

func TestNewNeedsDeviceCommands(t *testing.T) {
	cfg := config.Default()

	_, err := New(Setup{
		Device:    &device.Logical{},
		Particles: make([]particle.Particle, cfg.Particles.Count),
		Config:    cfg,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCommand)
}

func TestImageBarrier(t *testing.T) {
	image := vk.Image(vk.NullHandle)
	barrier := imageBarrier(image, layoutTransition{
		oldLayout: vk.ImageLayoutUndefined,
		newLayout: vk.ImageLayoutColorAttachmentOptimal,
		srcStage:  stageNone,
		srcAccess: accessNone,
		dstStage:  vk.PipelineStageFlags2(vk.PipelineStageColorAttachmentOutputBit),
		dstAccess: vk.AccessFlags2(vk.AccessColorAttachmentWriteBit),
	})

	assert.Equal(t, vk.StructureTypeImageMemoryBarrier2, barrier.SType)
	assert.Equal(t, vk.ImageLayoutUndefined, barrier.OldLayout)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, barrier.NewLayout)
	assert.Equal(t, vk.PipelineStageFlags2(0x400), barrier.DstStageMask,
		"VK_PIPELINE_STAGE_2_COLOR_ATTACHMENT_OUTPUT_BIT")
	assert.Equal(t, vk.AccessFlags2(0x100), barrier.DstAccessMask,
		"VK_ACCESS_2_COLOR_ATTACHMENT_WRITE_BIT")
	assert.Zero(t, barrier.SrcStageMask)
	assert.Equal(t, uint32(vk.QueueFamilyIgnored), barrier.SrcQueueFamilyIndex)
	assert.Equal(t, uint32(vk.QueueFamilyIgnored), barrier.DstQueueFamilyIndex)
	assert.Equal(t, swapchain.ColorRange(), barrier.SubresourceRange)
}
