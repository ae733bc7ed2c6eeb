package frame

import (
	"errors"
	"fmt"
	"time"

	"vulkan-particles/descriptor"
	"vulkan-particles/particle"
)

// simGPU is an in-memory device. Compute work runs the host reference of the
// kernel on the buffers selected by the descriptor plan, and every submission
// checks the timeline the way a real queue would block on it.
type simGPU struct {
	plan     []descriptor.SlotBinding
	buffers  [][]particle.Particle
	uniforms []Uniform
	fences   []bool

	// writer holds, per buffer, the index of the compute submission which last
	// wrote it. -1 means the initial upload.
	writer []int

	semaphore uint64
	width     int
	height    int
	images    uint32
	next      uint32

	computes     []computeRecord
	draws        []drawRecord
	recreations  [][2]int
	idleCalls    int
	presentCalls int

	fenceTimeouts    int
	timelineTimeouts int
	acquireScript    []SwapchainStatus
	presentScript    []SwapchainStatus
	presentErr       error
}

type computeRecord struct {
	slot, read, write int
	readWriter        int
	wait, signal      uint64
	delta             float32
}

type drawRecord struct {
	slot          int
	image         uint32
	wait, signal  uint64
	width, height int
}

var errDeadlock = errors.New("submission waits for a value nothing will signal")

func newSimGPU(initial []particle.Particle, frames, width, height int) *simGPU {
	g := &simGPU{
		plan:     descriptor.Plan(frames),
		buffers:  make([][]particle.Particle, frames),
		uniforms: make([]Uniform, frames),
		fences:   make([]bool, frames),
		writer:   make([]int, frames),
		width:    width,
		height:   height,
		images:   3,
	}

	for i := range g.buffers {
		g.buffers[i] = append([]particle.Particle(nil), initial...)
		g.writer[i] = -1
	}

	return g
}

func (g *simGPU) AcquireImage(slot int) (uint32, SwapchainStatus, error) {
	status := StatusOK
	if len(g.acquireScript) > 0 {
		status, g.acquireScript = g.acquireScript[0], g.acquireScript[1:]
	}
	if status == StatusOutOfDate {
		return 0, status, nil
	}

	image := g.next % g.images
	g.next++
	g.fences[slot] = true

	return image, status, nil
}

func (g *simGPU) WaitFence(slot int, _ time.Duration) (bool, error) {
	if g.fenceTimeouts > 0 {
		g.fenceTimeouts--
		return false, nil
	}
	if !g.fences[slot] {
		return false, fmt.Errorf("fence %d is never signaled", slot)
	}
	return true, nil
}

func (g *simGPU) ResetFence(slot int) error {
	g.fences[slot] = false
	return nil
}

func (g *simGPU) WriteUniform(slot int, u Uniform) error {
	g.uniforms[slot] = u
	return nil
}

func (g *simGPU) checkTimeline(wait, signal uint64) error {
	if g.semaphore < wait {
		return fmt.Errorf("%w: value %d, wait %d", errDeadlock, g.semaphore, wait)
	}
	if signal <= g.semaphore {
		return fmt.Errorf("timeline must increase: value %d, signal %d", g.semaphore, signal)
	}
	return nil
}

func (g *simGPU) SubmitCompute(slot int, wait, signal uint64) error {
	if err := g.checkTimeline(wait, signal); err != nil {
		return err
	}

	b := g.plan[slot]
	delta := g.uniforms[b.Uniform].DeltaTime
	particle.Step(g.buffers[b.Read], g.buffers[b.Write], delta)

	g.computes = append(g.computes, computeRecord{
		slot:       slot,
		read:       b.Read,
		write:      b.Write,
		readWriter: g.writer[b.Read],
		wait:       wait,
		signal:     signal,
		delta:      delta,
	})
	g.writer[b.Write] = len(g.computes) - 1
	g.semaphore = signal

	return nil
}

func (g *simGPU) SubmitGraphics(slot int, image uint32, wait, signal uint64) error {
	if err := g.checkTimeline(wait, signal); err != nil {
		return err
	}

	g.draws = append(g.draws, drawRecord{
		slot:   slot,
		image:  image,
		wait:   wait,
		signal: signal,
		width:  g.width,
		height: g.height,
	})
	g.semaphore = signal

	return nil
}

func (g *simGPU) WaitTimeline(value uint64, _ time.Duration) (bool, error) {
	if g.timelineTimeouts > 0 {
		g.timelineTimeouts--
		return false, nil
	}
	if g.semaphore < value {
		return false, fmt.Errorf("%w: value %d, host wait %d", errDeadlock, g.semaphore, value)
	}
	return true, nil
}

func (g *simGPU) Present(uint32) (SwapchainStatus, error) {
	g.presentCalls++
	if g.presentErr != nil {
		return StatusOK, g.presentErr
	}

	status := StatusOK
	if len(g.presentScript) > 0 {
		status, g.presentScript = g.presentScript[0], g.presentScript[1:]
	}
	return status, nil
}

func (g *simGPU) RecreateSwapchain(width, height int) error {
	g.width = width
	g.height = height
	g.recreations = append(g.recreations, [2]int{width, height})
	return nil
}

func (g *simGPU) WaitIdle() error {
	g.idleCalls++
	return nil
}

// result returns the particles written by the latest compute submission.
func (g *simGPU) result() []particle.Particle {
	last := g.computes[len(g.computes)-1]
	return g.buffers[last.write]
}

// simWindow replays a list of framebuffer sizes; the last one sticks.
type simWindow struct {
	sizes   [][2]int
	resized bool

	// closeAfter makes ShouldClose return true after that many polls. Zero
	// never closes.
	closeAfter int

	// resizeOnWait raises the resized flag from inside WaitEvents, like the
	// callback fired when a minimized window is restored.
	resizeOnWait bool

	polls int
	waits int
}

func newSimWindow(width, height int) *simWindow {
	return &simWindow{sizes: [][2]int{{width, height}}}
}

func (w *simWindow) ShouldClose() bool {
	return w.closeAfter > 0 && w.polls > w.closeAfter
}

func (w *simWindow) PollEvents() {
	w.polls++
}

func (w *simWindow) WaitEvents() {
	w.waits++
	if w.resizeOnWait {
		w.resized = true
	}
}

func (w *simWindow) FramebufferSize() (int, int) {
	size := w.sizes[0]
	if len(w.sizes) > 1 {
		w.sizes = w.sizes[1:]
	}
	return size[0], size[1]
}

func (w *simWindow) TakeResized() bool {
	resized := w.resized
	w.resized = false
	return resized
}

// resize queues the sizes the window will report and raises the flag.
func (w *simWindow) resize(sizes ...[2]int) {
	w.sizes = sizes
	w.resized = true
}

// manualClock only moves when told to.
type manualClock struct {
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// countingObserver records the notifications it gets.
type countingObserver struct {
	frames      []FrameStats
	recreations []string
	timeouts    map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{timeouts: make(map[string]int)}
}

func (o *countingObserver) FrameRendered(stats FrameStats) {
	o.frames = append(o.frames, stats)
}

func (o *countingObserver) SwapchainRecreated(reason string) {
	o.recreations = append(o.recreations, reason)
}

func (o *countingObserver) WaitTimedOut(what string) {
	o.timeouts[what]++
}
