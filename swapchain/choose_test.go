package swapchain

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint32
		want     uint32
	}{
		{"raised to three", 2, 8, 3},
		{"minimum above three", 4, 8, 4},
		{"unbounded", 1, 0, 3},
		{"clamped to max", 1, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
			assert.Equal(t, tt.want, ChooseImageCount(caps))
		})
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{
		Format:     vk.FormatB8g8r8a8Srgb,
		ColorSpace: vk.ColorSpaceSrgbNonlinear,
	}
	other := vk.SurfaceFormat{
		Format:     vk.FormatR8g8b8a8Unorm,
		ColorSpace: vk.ColorSpaceSrgbNonlinear,
	}

	assert.Equal(t, preferred, ChooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}))
	assert.Equal(t, other, ChooseSurfaceFormat([]vk.SurfaceFormat{other}))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode([]vk.PresentMode{
		vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox,
	}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode([]vk.PresentMode{
		vk.PresentModeImmediate, vk.PresentModeFifo,
	}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, ChooseExtent(caps, 1024, 768),
		"the surface extent wins over the framebuffer")

	caps.CurrentExtent = vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, ChooseExtent(caps, 1024, 768))
	assert.Equal(t, vk.Extent2D{Width: 4096, Height: 1}, ChooseExtent(caps, 10000, 0))
}

func TestColorRange(t *testing.T) {
	r := ColorRange()
	assert.Equal(t, uint32(1), r.LevelCount)
	assert.Equal(t, uint32(1), r.LayerCount)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), r.AspectMask)
}
