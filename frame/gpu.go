// Package frame drives the per-frame protocol shared by the compute and the
// graphics stages: acquire, fence wait, uniform update, compute submission,
// graphics submission, present and advance.
//
// The package talks to the GPU and to the window only through the GPU and
// Window interfaces so the protocol can be exercised without a device.
package frame

import "time"

// SwapchainStatus is the non-error outcome of acquiring or presenting an image.
type SwapchainStatus int

const (
	// StatusOK means the swapchain matches the surface.
	StatusOK SwapchainStatus = iota

	// StatusSuboptimal means the swapchain still works but no longer matches
	// the surface exactly.
	StatusSuboptimal

	// StatusOutOfDate means the swapchain can no longer be used.
	StatusOutOfDate
)

func (s SwapchainStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	}
	return "unknown"
}

// Uniform is the per-frame payload written into a slot's uniform buffer. Its
// layout matches the shader's UniformBuffer struct.
type Uniform struct {
	DeltaTime float32
}

// GPU is everything the orchestrator needs from the device. Slots are frame
// slot indices in [0, frames in flight).
type GPU interface {
	// AcquireImage requests the next swapchain image. The slot's fence is
	// signaled once the image is available unless the status is
	// StatusOutOfDate.
	AcquireImage(slot int) (image uint32, status SwapchainStatus, err error)

	// WaitFence waits up to timeout for the slot's fence. It returns false when
	// the timeout expired first.
	WaitFence(slot int, timeout time.Duration) (bool, error)

	// ResetFence puts the slot's fence back to unsignaled.
	ResetFence(slot int) error

	// WriteUniform copies u into the slot's mapped uniform buffer.
	WriteUniform(slot int, u Uniform) error

	// SubmitCompute records and submits the slot's compute work. The
	// submission waits for the timeline to reach wait and sets it to signal.
	SubmitCompute(slot int, wait, signal uint64) error

	// SubmitGraphics records and submits the slot's draw into image with the
	// same timeline semantics as SubmitCompute.
	SubmitGraphics(slot int, image uint32, wait, signal uint64) error

	// WaitTimeline waits on the host up to timeout for the timeline to reach
	// value. It returns false when the timeout expired first.
	WaitTimeline(value uint64, timeout time.Duration) (bool, error)

	// Present queues image for presentation without waiting on semaphores.
	Present(image uint32) (SwapchainStatus, error)

	// RecreateSwapchain rebuilds the swapchain for a framebuffer of the given
	// size. It waits for the device to be idle first.
	RecreateSwapchain(width, height int) error

	// WaitIdle blocks until the device has finished all submitted work.
	WaitIdle() error
}

// Window is the part of the windowing system the orchestrator consumes.
type Window interface {
	// ShouldClose reports whether the user asked to quit.
	ShouldClose() bool

	// PollEvents processes pending window events without blocking.
	PollEvents()

	// WaitEvents blocks until at least one window event was processed.
	WaitEvents()

	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height int)

	// TakeResized reports whether the framebuffer was resized since the last
	// call and clears the flag.
	TakeResized() bool
}
