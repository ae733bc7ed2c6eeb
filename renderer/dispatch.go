package renderer

/*
#include <stdint.h>
#include <stdlib.h>

typedef void (*voidFunction)(void);
typedef voidFunction (*getProcAddrFunction)(void* handle, const char* name);

typedef void (*cmdBeginRenderingFunction)(void* commandBuffer, const void* renderingInfo);
typedef void (*cmdEndRenderingFunction)(void* commandBuffer);
typedef void (*cmdPipelineBarrier2Function)(void* commandBuffer, const void* dependencyInfo);
typedef int32_t (*waitSemaphoresFunction)(void* device, const void* waitInfo, uint64_t timeout);

static void* lookupProc(void* getProcAddr, void* handle, const char* name) {
	return (void*)((getProcAddrFunction)getProcAddr)(handle, name);
}

static void callCmdBeginRendering(void* fn, void* commandBuffer, const void* renderingInfo) {
	((cmdBeginRenderingFunction)fn)(commandBuffer, renderingInfo);
}

static void callCmdEndRendering(void* fn, void* commandBuffer) {
	((cmdEndRenderingFunction)fn)(commandBuffer);
}

static void callCmdPipelineBarrier2(void* fn, void* commandBuffer, const void* dependencyInfo) {
	((cmdPipelineBarrier2Function)fn)(commandBuffer, dependencyInfo);
}

static int32_t callWaitSemaphores(void* fn, void* device, const void* waitInfo, uint64_t timeout) {
	return ((waitSemaphoresFunction)fn)(device, waitInfo, timeout);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// ErrMissingCommand is returned when the driver does not expose a device
// command the renderer records or waits with.
var ErrMissingCommand = errors.New("device command not available")

// deviceCommands are the Vulkan 1.3 device commands the binding only has
// structs for. They are looked up once per device through
// vkGetDeviceProcAddr and called with the structs' C representation.
type deviceCommands struct {
	device vk.Device

	cmdBeginRendering   unsafe.Pointer
	cmdEndRendering     unsafe.Pointer
	cmdPipelineBarrier2 unsafe.Pointer
	waitSemaphores      unsafe.Pointer
}

// commandNames returns the core name of a command followed by the name of
// the extension it was promoted from.
func commandNames(name string) []string {
	return []string{name, name + "KHR"}
}

// loadDeviceCommands resolves the commands for device. getInstanceProcAddr
// is the loader entry point also handed to vk.SetGetInstanceProcAddr.
func loadDeviceCommands(
	getInstanceProcAddr unsafe.Pointer,
	instance vk.Instance,
	device vk.Device,
) (*deviceCommands, error) {
	if getInstanceProcAddr == nil {
		return nil, fmt.Errorf("%w: no vkGetInstanceProcAddr", ErrMissingCommand)
	}

	getDeviceProcAddr := lookupProc(getInstanceProcAddr, unsafe.Pointer(instance), "vkGetDeviceProcAddr")
	if getDeviceProcAddr == nil {
		return nil, fmt.Errorf("%w: vkGetDeviceProcAddr", ErrMissingCommand)
	}

	cmds := &deviceCommands{device: device}

	wanted := []struct {
		name string
		fn   *unsafe.Pointer
	}{
		{"vkCmdBeginRendering", &cmds.cmdBeginRendering},
		{"vkCmdEndRendering", &cmds.cmdEndRendering},
		{"vkCmdPipelineBarrier2", &cmds.cmdPipelineBarrier2},
		{"vkWaitSemaphores", &cmds.waitSemaphores},
	}

	for _, w := range wanted {
		for _, name := range commandNames(w.name) {
			*w.fn = lookupProc(getDeviceProcAddr, unsafe.Pointer(device), name)
			if *w.fn != nil {
				break
			}
		}
		if *w.fn == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingCommand, w.name)
		}
	}

	return cmds, nil
}

func lookupProc(getProcAddr unsafe.Pointer, handle unsafe.Pointer, name string) unsafe.Pointer {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return C.lookupProc(getProcAddr, handle, cName)
}

func (d *deviceCommands) beginRendering(commandBuffer vk.CommandBuffer, info *vk.RenderingInfo) {
	ref, allocs := info.PassRef()
	defer allocs.Free()

	C.callCmdBeginRendering(d.cmdBeginRendering, unsafe.Pointer(commandBuffer), unsafe.Pointer(ref))
}

func (d *deviceCommands) endRendering(commandBuffer vk.CommandBuffer) {
	C.callCmdEndRendering(d.cmdEndRendering, unsafe.Pointer(commandBuffer))
}

func (d *deviceCommands) pipelineBarrier2(commandBuffer vk.CommandBuffer, info *vk.DependencyInfo) {
	ref, allocs := info.PassRef()
	defer allocs.Free()

	C.callCmdPipelineBarrier2(d.cmdPipelineBarrier2, unsafe.Pointer(commandBuffer), unsafe.Pointer(ref))
}

func (d *deviceCommands) wait(info *vk.SemaphoreWaitInfo, timeout uint64) vk.Result {
	ref, allocs := info.PassRef()
	defer allocs.Free()

	res := C.callWaitSemaphores(
		d.waitSemaphores,
		unsafe.Pointer(d.device),
		unsafe.Pointer(ref),
		C.uint64_t(timeout),
	)
	return vk.Result(res)
}
