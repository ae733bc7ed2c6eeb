package frame

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vulkan-particles/config"
)

// Reasons passed to Observer.SwapchainRecreated.
const (
	ReasonAcquireOutOfDate  = "acquire_out_of_date"
	ReasonPresentOutOfDate  = "present_out_of_date"
	ReasonPresentSuboptimal = "present_suboptimal"
	ReasonResized           = "resized"
)

// Options configures an Orchestrator.
type Options struct {
	FramesInFlight int

	// DeltaScale multiplies the frame time in milliseconds to get the delta
	// time handed to the compute shader.
	DeltaScale float32

	FenceTimeout    time.Duration
	TimelineTimeout time.Duration
	Retry           RetryPolicy

	Logger   *zap.Logger
	Observer Observer

	// Now is the clock used for delta times. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps the frame related configuration onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		FramesInFlight:  cfg.Frames.InFlight,
		DeltaScale:      cfg.Frames.DeltaScale,
		FenceTimeout:    cfg.Frames.FenceTimeout,
		TimelineTimeout: cfg.Frames.TimelineTimeout,
		Retry: RetryPolicy{
			MaxRetries: cfg.Retry.MaxRetries,
			Interval:   cfg.Retry.Interval,
		},
	}
}

// Orchestrator runs the frame loop. It is not safe for concurrent use: a
// single thread owns it together with the GPU and the window.
type Orchestrator struct {
	gpu    GPU
	window Window

	opts     Options
	log      *zap.Logger
	observer Observer

	timeline Timeline

	// current is the frame slot the next frame uses.
	current int

	lastFrame time.Time
	rendered  uint64
}

// New returns an orchestrator starting at slot 0 with the timeline at 0.
func New(gpu GPU, window Window, opts Options) (*Orchestrator, error) {
	if opts.FramesInFlight < 1 {
		return nil, fmt.Errorf("frames in flight must be positive, got %d", opts.FramesInFlight)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Orchestrator{
		gpu:      gpu,
		window:   window,
		opts:     opts,
		log:      opts.Logger,
		observer: opts.Observer,
	}, nil
}

// Slot returns the frame slot the next frame will use.
func (o *Orchestrator) Slot() int {
	return o.current
}

// Timeline returns the timeline value the last presented frame reached.
func (o *Orchestrator) Timeline() uint64 {
	return o.timeline.Value()
}

// Rendered returns the number of frames submitted so far.
func (o *Orchestrator) Rendered() uint64 {
	return o.rendered
}

// Run renders frames until the window should close or ctx is done, then
// waits for the device to go idle. Closing is not an error.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	o.log.Info("entering frame loop",
		zap.Int("frames_in_flight", o.opts.FramesInFlight),
	)

	defer func() {
		if idleErr := o.gpu.WaitIdle(); idleErr != nil && err == nil {
			err = fmt.Errorf("waiting for device idle: %w", idleErr)
		}
	}()

	for {
		o.window.PollEvents()
		if o.window.ShouldClose() || ctx.Err() != nil {
			o.log.Info("leaving frame loop", zap.Uint64("frames", o.rendered))
			return nil
		}

		if err := o.Frame(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil
			}
			return fmt.Errorf("frame %d: %w", o.rendered, err)
		}
	}
}

// Frame renders one frame in the current slot. A frame whose image could not
// be acquired because the swapchain was out of date only rebuilds the
// swapchain; it neither advances the slot nor the timeline.
func (o *Orchestrator) Frame(ctx context.Context) error {
	slot := o.current
	start := o.opts.Now()
	delta := o.deltaTime(start)

	image, status, err := o.gpu.AcquireImage(slot)
	if err != nil {
		return fmt.Errorf("acquiring swapchain image: %w", err)
	}
	if status == StatusOutOfDate {
		return o.recreate(ctx, ReasonAcquireOutOfDate)
	}

	err = o.opts.Retry.Wait(ctx, func() (bool, error) {
		return o.gpu.WaitFence(slot, o.opts.FenceTimeout)
	}, o.timedOut("fence", slot))
	if err != nil {
		return fmt.Errorf("waiting for slot %d fence: %w", slot, err)
	}

	if err := o.gpu.ResetFence(slot); err != nil {
		return fmt.Errorf("resetting slot %d fence: %w", slot, err)
	}

	if err := o.gpu.WriteUniform(slot, Uniform{DeltaTime: delta}); err != nil {
		return fmt.Errorf("updating slot %d uniform buffer: %w", slot, err)
	}

	stamps := o.timeline.Stamps()

	err = o.gpu.SubmitCompute(slot, stamps.ComputeWait, stamps.ComputeSignal)
	if err != nil {
		return fmt.Errorf("submitting compute work: %w", err)
	}

	err = o.gpu.SubmitGraphics(slot, image, stamps.GraphicsWait, stamps.GraphicsSignal)
	if err != nil {
		return fmt.Errorf("submitting graphics work: %w", err)
	}
	o.timeline.Advance()
	o.rendered++

	err = o.opts.Retry.Wait(ctx, func() (bool, error) {
		return o.gpu.WaitTimeline(stamps.GraphicsSignal, o.opts.TimelineTimeout)
	}, o.timedOut("timeline", slot))
	if err != nil {
		return fmt.Errorf("waiting for timeline value %d: %w", stamps.GraphicsSignal, err)
	}

	presented, err := o.gpu.Present(image)
	if err != nil {
		return fmt.Errorf("presenting image %d: %w", image, err)
	}

	resized := o.window.TakeResized()
	switch {
	case presented == StatusOutOfDate:
		err = o.recreate(ctx, ReasonPresentOutOfDate)
	case presented == StatusSuboptimal:
		err = o.recreate(ctx, ReasonPresentSuboptimal)
	case resized:
		err = o.recreate(ctx, ReasonResized)
	}
	if err != nil {
		return err
	}

	o.current = (o.current + 1) % o.opts.FramesInFlight

	o.observer.FrameRendered(FrameStats{
		Index:     o.rendered - 1,
		Slot:      slot,
		Image:     image,
		DeltaTime: delta,
		Duration:  o.opts.Now().Sub(start),
		Timeline:  stamps.GraphicsSignal,
	})

	return nil
}

// deltaTime returns the scaled time since the previous frame started. The
// very first frame gets zero.
func (o *Orchestrator) deltaTime(now time.Time) float32 {
	defer func() { o.lastFrame = now }()

	if o.lastFrame.IsZero() {
		return 0
	}

	elapsed := now.Sub(o.lastFrame)
	ms := float32(elapsed) / float32(time.Millisecond)
	return ms * o.opts.DeltaScale
}

// recreate rebuilds the swapchain. While the framebuffer has no area, for
// example when the window is minimized, it blocks on window events.
func (o *Orchestrator) recreate(ctx context.Context, reason string) error {
	width, height := o.window.FramebufferSize()
	for width == 0 || height == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if o.window.ShouldClose() {
			return nil
		}

		o.window.WaitEvents()
		width, height = o.window.FramebufferSize()
	}

	if err := o.gpu.RecreateSwapchain(width, height); err != nil {
		return fmt.Errorf("recreating swapchain (%s): %w", reason, err)
	}

	// The new swapchain already uses the latest size.
	o.window.TakeResized()

	o.log.Debug("swapchain recreated",
		zap.String("reason", reason),
		zap.Int("width", width),
		zap.Int("height", height),
	)
	o.observer.SwapchainRecreated(reason)

	return nil
}

func (o *Orchestrator) timedOut(what string, slot int) func(int) {
	return func(attempt int) {
		o.log.Debug("wait timed out, retrying",
			zap.String("what", what),
			zap.Int("slot", slot),
			zap.Int("attempt", attempt),
		)
		o.observer.WaitTimedOut(what)
	}
}
