package frame

import "time"

// FrameStats describes one presented frame.
type FrameStats struct {
	Index     uint64
	Slot      int
	Image     uint32
	DeltaTime float32
	Duration  time.Duration
	Timeline  uint64
}

// Observer receives notifications about the frame loop. Implementations must
// be cheap, they run on the render thread.
type Observer interface {
	FrameRendered(stats FrameStats)
	SwapchainRecreated(reason string)
	WaitTimedOut(what string)
}

type nopObserver struct{}

func (nopObserver) FrameRendered(FrameStats)  {}
func (nopObserver) SwapchainRecreated(string) {}
func (nopObserver) WaitTimedOut(string)       {}
