// Package swapchain creates, rebuilds and destroys the swapchain and the
// image views rendered into.
package swapchain

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
	"go.uber.org/zap"
)

// Support describes what a surface offers a physical device.
type Support struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Manager owns the swapchain and its image views. The images belong to the
// swapchain and are only referenced.
type Manager struct {
	device   vk.Device
	physical vk.PhysicalDevice
	surface  vk.Surface
	log      *zap.Logger

	Handle vk.Swapchain
	Images []vk.Image
	Views  []vk.ImageView
	Format vk.Format
	Extent vk.Extent2D
}

// New returns a manager for surface. Nothing is created until Create.
func New(
	device vk.Device,
	physical vk.PhysicalDevice,
	surface vk.Surface,
	log *zap.Logger,
) *Manager {
	if log == nil {
		log = zap.NewNop()
	}

	return &Manager{
		device:   device,
		physical: physical,
		surface:  surface,
		log:      log,
		Handle:   vk.NullSwapchain,
	}
}

// QuerySupport reads the surface capabilities, formats and present modes.
func (m *Manager) QuerySupport() (Support, error) {
	details := Support{}

	var capabilities vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(m.physical, m.surface, &capabilities)
	if err := vk.Error(res); err != nil {
		return Support{}, fmt.Errorf("failed to query device surface capabilities: %w", err)
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	details.Capabilities = capabilities

	var formatCount uint32
	res = vk.GetPhysicalDeviceSurfaceFormats(m.physical, m.surface, &formatCount, nil)
	if err := vk.Error(res); err != nil {
		return Support{}, fmt.Errorf("failed to query device surface formats: %w", err)
	}

	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		vk.GetPhysicalDeviceSurfaceFormats(m.physical, m.surface, &formatCount, formats)
		for _, format := range formats {
			format.Deref()
			details.Formats = append(details.Formats, format)
		}
	}

	var presentModeCount uint32
	res = vk.GetPhysicalDeviceSurfacePresentModes(
		m.physical, m.surface, &presentModeCount, nil,
	)
	if err := vk.Error(res); err != nil {
		return Support{}, fmt.Errorf("failed to query device surface present modes: %w", err)
	}

	if presentModeCount != 0 {
		presentModes := make([]vk.PresentMode, presentModeCount)
		vk.GetPhysicalDeviceSurfacePresentModes(
			m.physical, m.surface, &presentModeCount, presentModes,
		)
		details.PresentModes = presentModes
	}

	return details, nil
}

// Create creates the swapchain for a framebuffer of width x height pixels.
func (m *Manager) Create(width, height int) error {
	support, err := m.QuerySupport()
	if err != nil {
		return err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.New("surface has no formats or present modes")
	}

	surfaceFormat := ChooseSurfaceFormat(support.Formats)
	presentMode := ChoosePresentMode(support.PresentModes)
	extent := ChooseExtent(support.Capabilities, width, height)
	imageCount := ChooseImageCount(support.Capabilities)

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          m.surface,
		MinImageCount:    imageCount,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageFormat:      surfaceFormat.Format,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}

	var swapChain vk.Swapchain
	res := vk.CreateSwapchain(m.device, &createInfo, nil, &swapChain)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to create swap chain: %w", err)
	}
	m.Handle = swapChain

	var imagesCount uint32
	res = vk.GetSwapchainImages(m.device, m.Handle, &imagesCount, nil)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to get swap chain images count: %w", err)
	}

	images := make([]vk.Image, imagesCount)
	res = vk.GetSwapchainImages(m.device, m.Handle, &imagesCount, images)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to get swap chain images: %w", err)
	}

	m.Images = images
	m.Format = surfaceFormat.Format
	m.Extent = extent

	m.log.Debug("swapchain created",
		zap.Uint32("width", extent.Width),
		zap.Uint32("height", extent.Height),
		zap.Int("images", len(images)),
		zap.Int32("format", int32(surfaceFormat.Format)),
		zap.Int32("present_mode", int32(presentMode)),
	)

	return nil
}

// CreateViews creates one color view for every swapchain image.
func (m *Manager) CreateViews() error {
	m.Views = make([]vk.ImageView, 0, len(m.Images))

	for i, image := range m.Images {
		createInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   m.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: ColorRange(),
		}

		var imageView vk.ImageView
		res := vk.CreateImageView(m.device, &createInfo, nil, &imageView)
		if err := vk.Error(res); err != nil {
			return fmt.Errorf("failed to create image view %d: %w", i, err)
		}

		m.Views = append(m.Views, imageView)
	}

	return nil
}

// Recreate waits for the device to go idle and builds the swapchain and its
// views again for the new framebuffer size. The caller makes sure the size
// is not zero.
func (m *Manager) Recreate(width, height int) error {
	if err := vk.Error(vk.DeviceWaitIdle(m.device)); err != nil {
		return fmt.Errorf("device wait idle: %w", err)
	}

	m.Destroy()

	if err := m.Create(width, height); err != nil {
		return fmt.Errorf("createSwapChain: %w", err)
	}
	if err := m.CreateViews(); err != nil {
		return fmt.Errorf("createImageViews: %w", err)
	}

	return nil
}

// Destroy destroys the views and then the swapchain.
func (m *Manager) Destroy() {
	for _, imageView := range m.Views {
		vk.DestroyImageView(m.device, imageView, nil)
	}
	m.Views = nil

	if m.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(m.device, m.Handle, nil)
		m.Handle = vk.NullSwapchain
	}
	m.Images = nil
}

// ColorRange is the subresource range of a swapchain image: color aspect,
// one mip level and one layer.
func ColorRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}
