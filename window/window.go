// Package window opens the GLFW window the particles are presented in and
// turns its events into the polling interface the frame loop consumes.
package window

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Options configures New.
type Options struct {
	Width     int
	Height    int
	Title     string
	Resizable bool
}

// Window is a GLFW window without a client API, ready for a Vulkan surface.
// Every method except WatchContext must be called from the main thread.
type Window struct {
	handle *glfw.Window

	resized        atomic.Bool
	closeRequested atomic.Bool
}

// New initializes GLFW and opens the window.
func New(opts Options) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw.Init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if opts.Resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	handle, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	w := &Window{handle: handle}
	handle.SetFramebufferSizeCallback(w.frameBufferResizeCallback)
	handle.SetKeyCallback(w.keyCallback)

	return w, nil
}

func (w *Window) frameBufferResizeCallback(_ *glfw.Window, _ int, _ int) {
	w.resized.Store(true)
}

func (w *Window) keyCallback(
	window *glfw.Window,
	key glfw.Key,
	_ int,
	action glfw.Action,
	_ glfw.ModifierKey,
) {
	if key == glfw.KeyEscape && action == glfw.Press {
		window.SetShouldClose(true)
	}
}

// ShouldClose reports whether the window was closed, escape was pressed or
// the context given to WatchContext is done.
func (w *Window) ShouldClose() bool {
	return w.closeRequested.Load() || w.handle.ShouldClose()
}

// PollEvents processes pending events without blocking.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until at least one event arrives.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

// FramebufferSize returns the framebuffer size in pixels.
func (w *Window) FramebufferSize() (int, int) {
	return w.handle.GetFramebufferSize()
}

// TakeResized reports whether the framebuffer was resized since the last call
// and clears the flag.
func (w *Window) TakeResized() bool {
	return w.resized.Swap(false)
}

// WatchContext makes the window want to close once ctx is done and wakes up
// a blocked WaitEvents. The returned function stops watching.
func (w *Window) WatchContext(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		w.closeRequested.Store(true)
		glfw.PostEmptyEvent()
	})
}

// RequiredExtensions returns the instance extensions GLFW needs to create
// surfaces, NUL terminated for the Vulkan API.
func (w *Window) RequiredExtensions() []string {
	return nulTerminated(w.handle.GetRequiredInstanceExtensions())
}

// CreateWindowSurface creates a Vulkan surface for the window.
func (w *Window) CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error) {
	return w.handle.CreateWindowSurface(instance, allocCallbacks)
}

// Destroy closes the window and terminates GLFW.
func (w *Window) Destroy() {
	w.handle.Destroy()
	glfw.Terminate()
}

func nulTerminated(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		if !strings.HasSuffix(name, "\x00") {
			name += "\x00"
		}
		out[i] = name
	}
	return out
}
