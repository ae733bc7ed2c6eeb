// Package device negotiates everything the renderer needs from Vulkan before
// any resource is created: the instance and its validation layers, the
// presentation surface, the physical device and the logical device with its
// single queue.
package device

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"go.uber.org/zap"
)

// ValidationLayer is enabled on the instance and the device when validation
// is requested.
const ValidationLayer = "VK_LAYER_KHRONOS_validation\x00"

const debugReportExtension = "VK_EXT_debug_report\x00"

// InstanceOptions configures NewInstance.
type InstanceOptions struct {
	AppName string

	// Extensions are the instance extensions required by the window system.
	// They have to be NUL terminated.
	Extensions []string

	Validation bool
	Logger     *zap.Logger
}

// Instance owns the Vulkan instance and, with validation on, the debug report
// callback attached to it.
type Instance struct {
	Handle     vk.Instance
	Validation bool

	debugCallback vk.DebugReportCallback
	log           *zap.Logger
}

// NewInstance creates a Vulkan 1.3 instance. It fails when validation is
// requested but the validation layer is not installed.
func NewInstance(opts InstanceOptions) (*Instance, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.Validation && !checkValidationSupport() {
		return nil, fmt.Errorf("validation layers requested but not available")
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   opts.AppName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "No Engine\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         APIVersion,
	}

	extensions := append([]string(nil), opts.Extensions...)
	if opts.Validation {
		extensions = append(extensions, debugReportExtension)
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	if opts.Validation {
		createInfo.EnabledLayerCount = 1
		createInfo.PpEnabledLayerNames = []string{ValidationLayer}
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return nil, fmt.Errorf("failed to create Vulkan instance: %w", err)
	}

	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("loading instance functions: %w", err)
	}

	inst := &Instance{
		Handle:     instance,
		Validation: opts.Validation,
		log:        log,
	}

	if opts.Validation {
		if err := inst.createDebugCallback(); err != nil {
			vk.DestroyInstance(instance, nil)
			return nil, err
		}
	}

	log.Debug("vulkan instance created",
		zap.Strings("extensions", trimNames(extensions)),
		zap.Bool("validation", opts.Validation),
	)

	return inst, nil
}

func (i *Instance) createDebugCallback() error {
	createInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(
			vk.DebugReportErrorBit |
				vk.DebugReportWarningBit |
				vk.DebugReportPerformanceWarningBit,
		),
		PfnCallback: i.report,
	}

	var callback vk.DebugReportCallback
	res := vk.CreateDebugReportCallback(i.Handle, &createInfo, nil, &callback)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to create debug report callback: %w", err)
	}
	i.debugCallback = callback

	return nil
}

// report forwards validation layer messages to the logger.
func (i *Instance) report(
	flags vk.DebugReportFlags,
	objectType vk.DebugReportObjectType,
	object uint64,
	location uint64,
	messageCode int32,
	layerPrefix string,
	message string,
	userData unsafe.Pointer,
) vk.Bool32 {
	fields := []zap.Field{
		zap.String("layer", layerPrefix),
		zap.Int32("code", messageCode),
		zap.Uint64("object", object),
	}

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		i.log.Error(message, fields...)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		i.log.Warn(message, append(fields, zap.Bool("performance", true))...)
	default:
		i.log.Warn(message, fields...)
	}

	return vk.False
}

// SurfaceSource is a window able to create a Vulkan surface for itself, such
// as *glfw.Window.
type SurfaceSource interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

// CreateSurface creates the presentation surface of window.
func (i *Instance) CreateSurface(window SurfaceSource) (vk.Surface, error) {
	surfacePtr, err := window.CreateWindowSurface(i.Handle, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("cannot create surface within GLFW window: %w", err)
	}

	return vk.SurfaceFromPointer(surfacePtr), nil
}

// DestroySurface destroys a surface created by CreateSurface.
func (i *Instance) DestroySurface(surface vk.Surface) {
	if surface != vk.NullSurface {
		vk.DestroySurface(i.Handle, surface, nil)
	}
}

// Destroy destroys the debug callback and the instance. Every object created
// from the instance must be gone by then.
func (i *Instance) Destroy() {
	if i.debugCallback != vk.DebugReportCallback(vk.NullHandle) {
		vk.DestroyDebugReportCallback(i.Handle, i.debugCallback, nil)
		i.debugCallback = vk.DebugReportCallback(vk.NullHandle)
	}
	vk.DestroyInstance(i.Handle, nil)
}

func checkValidationSupport() bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	availableLayers := make([]vk.LayerProperties, count)

	if vk.EnumerateInstanceLayerProperties(&count, availableLayers) != vk.Success {
		return false
	}

	for _, layer := range availableLayers {
		layer.Deref()

		if vk.ToString(layer.LayerName[:])+"\x00" == ValidationLayer {
			return true
		}
	}

	return false
}
