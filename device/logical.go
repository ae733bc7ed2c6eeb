package device

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Logical is the logical device with the one queue used for compute,
// graphics, transfers and presentation.
type Logical struct {
	Handle      vk.Device
	Queue       vk.Queue
	QueueFamily uint32
}

// NewLogical creates the logical device on physical with req's extensions
// enabled. Timeline semaphores, dynamic rendering, synchronization2 and
// extended dynamic state are switched on through the features chain; a device
// lacking any of them fails creation.
func NewLogical(physical *Physical, req Requirements, validation bool) (*Logical, error) {
	queueCreateInfos := []vk.DeviceQueueCreateInfo{
		{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: physical.QueueFamily,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		},
	}

	// The chain is built from its tail: every PassRef copies the PNext of the
	// struct into C memory, so the next link has to exist already.
	extendedDynamicState := vk.PhysicalDeviceExtendedDynamicStateFeatures{
		SType:                vk.StructureTypePhysicalDeviceExtendedDynamicStateFeatures,
		ExtendedDynamicState: vk.True,
	}
	extendedDynamicStateRef, extendedDynamicStateAllocs := extendedDynamicState.PassRef()
	defer extendedDynamicStateAllocs.Free()

	features13 := vk.PhysicalDeviceVulkan13Features{
		SType:            vk.StructureTypePhysicalDeviceVulkan13Features,
		PNext:            unsafe.Pointer(extendedDynamicStateRef),
		Synchronization2: vk.True,
		DynamicRendering: vk.True,
	}
	features13Ref, features13Allocs := features13.PassRef()
	defer features13Allocs.Free()

	features12 := vk.PhysicalDeviceVulkan12Features{
		SType:             vk.StructureTypePhysicalDeviceVulkan12Features,
		PNext:             unsafe.Pointer(features13Ref),
		TimelineSemaphore: vk.True,
	}
	features12Ref, features12Allocs := features12.PassRef()
	defer features12Allocs.Free()

	features2 := vk.PhysicalDeviceFeatures2{
		SType: vk.StructureTypePhysicalDeviceFeatures2,
		PNext: unsafe.Pointer(features12Ref),
	}
	features2Ref, features2Allocs := features2.PassRef()
	defer features2Allocs.Free()

	createInfo := vk.DeviceCreateInfo{
		SType: vk.StructureTypeDeviceCreateInfo,
		PNext: unsafe.Pointer(features2Ref),

		PQueueCreateInfos:    queueCreateInfos,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),

		EnabledExtensionCount:   uint32(len(req.Extensions)),
		PpEnabledExtensionNames: req.Extensions,
	}

	if validation {
		createInfo.PpEnabledLayerNames = []string{ValidationLayer}
		createInfo.EnabledLayerCount = 1
	}

	var device vk.Device
	err := vk.Error(vk.CreateDevice(physical.Handle, &createInfo, nil, &device))
	if err != nil {
		return nil, fmt.Errorf("failed to create logical device: %w", err)
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device, physical.QueueFamily, 0, &queue)

	return &Logical{
		Handle:      device,
		Queue:       queue,
		QueueFamily: physical.QueueFamily,
	}, nil
}

// WaitIdle blocks until the device finished all submitted work.
func (l *Logical) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(l.Handle)); err != nil {
		return fmt.Errorf("device wait idle: %w", err)
	}
	return nil
}

// Destroy destroys the device. Every object created from it must be gone.
func (l *Logical) Destroy() {
	if l.Handle != vk.Device(vk.NullHandle) {
		vk.DestroyDevice(l.Handle, nil)
		l.Handle = vk.Device(vk.NullHandle)
	}
}
