package device

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	vk "github.com/goki/vulkan"
	"go.uber.org/zap"

	"vulkan-particles/queues"
)

// APIVersion is the Vulkan version requested from the instance and required
// from the physical device.
var APIVersion = vk.MakeVersion(1, 3, 0)

// ErrNoSuitableDevice is returned by Pick when no physical device passes the
// requirements check.
var ErrNoSuitableDevice = errors.New("failed to find a suitable physical device")

// DeviceExtensions are the device extensions the renderer enables. All of
// them are NUL terminated.
var DeviceExtensions = []string{
	vk.KhrSwapchainExtensionName + "\x00",
	"VK_KHR_spirv_1_4\x00",
	"VK_KHR_synchronization2\x00",
	"VK_KHR_create_renderpass2\x00",
	"VK_KHR_shader_draw_parameters\x00",
	"VK_KHR_timeline_semaphore\x00",
	"VK_KHR_dynamic_rendering\x00",
	"VK_EXT_extended_dynamic_state\x00",
}

// Requirements are what a physical device has to offer to be picked.
type Requirements struct {
	APIVersion uint32
	Extensions []string
}

// DefaultRequirements returns the requirements of the particle renderer.
func DefaultRequirements() Requirements {
	return Requirements{
		APIVersion: APIVersion,
		Extensions: DeviceExtensions,
	}
}

// Capabilities is what a physical device reports about itself. Extension
// names are NUL terminated, like the ones in Requirements.
type Capabilities struct {
	Name       string
	Type       vk.PhysicalDeviceType
	APIVersion uint32
	Extensions []string
	Families   []queues.Family

	// Surface support of the device for the presentation surface.
	FormatCount      int
	PresentModeCount int
}

// Check returns nil when caps satisfy r and otherwise an error naming
// everything that is missing.
func (r Requirements) Check(caps Capabilities) error {
	var problems []string

	if caps.APIVersion < r.APIVersion {
		problems = append(problems, fmt.Sprintf(
			"API version %s is older than %s",
			VersionString(caps.APIVersion), VersionString(r.APIVersion),
		))
	}

	var missing []string
	for _, ext := range r.Extensions {
		if !slices.Contains(caps.Extensions, ext) {
			missing = append(missing, strings.TrimRight(ext, "\x00"))
		}
	}
	if len(missing) > 0 {
		problems = append(problems, "missing extensions "+strings.Join(missing, ", "))
	}

	indices := queues.Find(caps.Families)
	if !indices.Graphics.HasValue() {
		problems = append(problems, "no graphics queue family")
	} else if !indices.Universal.HasValue() {
		problems = append(problems, queues.ErrNoUniversalFamily.Error())
	}

	if caps.FormatCount == 0 || caps.PresentModeCount == 0 {
		problems = append(problems, "no surface formats or present modes")
	}

	if len(problems) > 0 {
		return fmt.Errorf("device %q: %s", caps.Name, strings.Join(problems, "; "))
	}
	return nil
}

// Physical is the physical device picked for rendering together with the
// queue family all work is submitted to.
type Physical struct {
	Handle       vk.PhysicalDevice
	Capabilities Capabilities
	QueueFamily  uint32
}

// Pick returns the first physical device satisfying req for surface.
func Pick(
	instance vk.Instance,
	surface vk.Surface,
	req Requirements,
	log *zap.Logger,
) (*Physical, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var deviceCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to get the number of physical devices: %w", err)
	}
	if deviceCount == 0 {
		return nil, fmt.Errorf("%w: no GPUs with Vulkan support", ErrNoSuitableDevice)
	}

	pDevices := make([]vk.PhysicalDevice, deviceCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, pDevices))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate the physical devices: %w", err)
	}

	var rejected []string
	for _, device := range pDevices {
		caps := queryCapabilities(device, surface, log)

		if err := req.Check(caps); err != nil {
			log.Debug("rejecting physical device", zap.Error(err))
			rejected = append(rejected, err.Error())
			continue
		}

		family, err := queues.Universal(caps.Families)
		if err != nil {
			return nil, err
		}

		log.Info("picked physical device",
			zap.String("name", caps.Name),
			zap.String("api_version", VersionString(caps.APIVersion)),
			zap.Uint32("queue_family", family),
		)

		return &Physical{
			Handle:       device,
			Capabilities: caps,
			QueueFamily:  family,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoSuitableDevice, strings.Join(rejected, "; "))
}

func queryCapabilities(
	device vk.PhysicalDevice,
	surface vk.Surface,
	log *zap.Logger,
) Capabilities {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()

	caps := Capabilities{
		Name:       vk.ToString(properties.DeviceName[:]),
		Type:       properties.DeviceType,
		APIVersion: properties.ApiVersion,
		Extensions: deviceExtensions(device, log),
		Families:   queueFamilies(device, surface, log),
	}

	var formatCount uint32
	res := vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil)
	if err := vk.Error(res); err != nil {
		log.Warn("querying surface formats", zap.String("device", caps.Name), zap.Error(err))
	}
	caps.FormatCount = int(formatCount)

	var presentModeCount uint32
	res = vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &presentModeCount, nil)
	if err := vk.Error(res); err != nil {
		log.Warn("querying present modes", zap.String("device", caps.Name), zap.Error(err))
	}
	caps.PresentModeCount = int(presentModeCount)

	return caps
}

func deviceExtensions(device vk.PhysicalDevice, log *zap.Logger) []string {
	var extensionsCount uint32
	res := vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount, nil)
	if err := vk.Error(res); err != nil {
		log.Warn("enumerating device extension properties count", zap.Error(err))
		return nil
	}

	availableExtensions := make([]vk.ExtensionProperties, extensionsCount)
	res = vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount,
		availableExtensions)
	if err := vk.Error(res); err != nil {
		log.Warn("getting device extension properties", zap.Error(err))
		return nil
	}

	names := make([]string, 0, len(availableExtensions))
	for _, extension := range availableExtensions {
		extension.Deref()
		names = append(names, vk.ToString(extension.ExtensionName[:])+"\x00")
	}

	return names
}

func queueFamilies(
	device vk.PhysicalDevice,
	surface vk.Surface,
	log *zap.Logger,
) []queues.Family {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)

	properties := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, properties)

	families := make([]queues.Family, len(properties))
	for i, family := range properties {
		family.Deref()

		families[i].Graphics = family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		families[i].Compute = family.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0

		var hasPresent vk.Bool32
		err := vk.Error(
			vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &hasPresent),
		)
		if err != nil {
			log.Warn("querying surface support", zap.Int("family", i), zap.Error(err))
			continue
		}
		families[i].Present = hasPresent.B()
	}

	return families
}

// VersionString formats a packed Vulkan version as major.minor.patch.
func VersionString(version uint32) string {
	return fmt.Sprintf("%d.%d.%d", version>>22, (version>>12)&0x3ff, version&0xfff)
}

func trimNames(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = strings.TrimRight(name, "\x00")
	}
	return out
}
