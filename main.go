package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"go.uber.org/zap"

	"vulkan-particles/config"
	"vulkan-particles/device"
	"vulkan-particles/frame"
	"vulkan-particles/logger"
	"vulkan-particles/particle"
	"vulkan-particles/renderer"
	"vulkan-particles/shaders"
	"vulkan-particles/telemetry"
	"vulkan-particles/window"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	flag.BoolVar(&args.debug, "debug", false, "Enable Vulkan validation layers and debug logging")
	flag.StringVar(&args.config, "config", "", "YAML file overriding the default configuration")
	flag.StringVar(&args.perfOut, "perf-out", "", "Write per-frame timings to this CSV file")
}

var args struct {
	debug   bool
	config  string
	perfOut string
}

func main() {
	flag.Parse()

	log, err := logger.New(args.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: creating logger: %s\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(args.config)
	if err != nil {
		log.Error("loading configuration", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	if args.debug {
		cfg.Vulkan.Validation = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &ParticleApp{
		cfg:     cfg,
		log:     log,
		perfOut: args.perfOut,
	}
	err = app.Run(ctx)
	stop()

	if err != nil {
		log.Error("particles failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

// ParticleApp simulates particles with a compute shader and draws them as
// points into a window.
type ParticleApp struct {
	cfg     config.Config
	log     *zap.Logger
	perfOut string

	window   *window.Window
	instance *device.Instance
	surface  vk.Surface
	physical *device.Physical
	device   *device.Logical
	renderer *renderer.Renderer
}

// Run opens the window, sets up Vulkan and renders until the window is
// closed or ctx is done.
func (p *ParticleApp) Run(ctx context.Context) error {
	if err := p.initWindow(); err != nil {
		return fmt.Errorf("initWindow: %w", err)
	}
	defer p.cleanWindow()

	if err := p.initVulkan(); err != nil {
		p.cleanVulkan()
		return fmt.Errorf("initVulkan: %w", err)
	}
	defer p.cleanVulkan()

	if err := p.mainLoop(ctx); err != nil {
		return fmt.Errorf("mainLoop: %w", err)
	}

	return nil
}

func (p *ParticleApp) initWindow() error {
	w, err := window.New(window.Options{
		Width:     p.cfg.Window.Width,
		Height:    p.cfg.Window.Height,
		Title:     p.cfg.Window.Title,
		Resizable: p.cfg.Window.Resizable,
	})
	if err != nil {
		return err
	}

	p.window = w
	return nil
}

func (p *ParticleApp) cleanWindow() {
	p.window.Destroy()
}

func (p *ParticleApp) initVulkan() error {
	getProcAddr := glfw.GetVulkanGetInstanceProcAddress()
	vk.SetGetInstanceProcAddr(getProcAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to init Vulkan Go: %w", err)
	}

	instance, err := device.NewInstance(device.InstanceOptions{
		AppName:    p.cfg.Window.Title,
		Extensions: p.window.RequiredExtensions(),
		Validation: p.cfg.Vulkan.Validation,
		Logger:     p.log.Named("vulkan"),
	})
	if err != nil {
		return fmt.Errorf("createInstance: %w", err)
	}
	p.instance = instance

	surface, err := instance.CreateSurface(p.window)
	if err != nil {
		return fmt.Errorf("createSurface: %w", err)
	}
	p.surface = surface

	req := device.DefaultRequirements()

	physical, err := device.Pick(instance.Handle, surface, req, p.log)
	if err != nil {
		return fmt.Errorf("pickPhysicalDevice: %w", err)
	}
	p.physical = physical

	logical, err := device.NewLogical(physical, req, p.cfg.Vulkan.Validation)
	if err != nil {
		return fmt.Errorf("createLogicalDevice: %w", err)
	}
	p.device = logical

	shader, err := shaders.Read(p.cfg.Shader.Path)
	if err != nil {
		return fmt.Errorf("readShader: %w", err)
	}

	particles := particle.Seed(
		particle.NewRand(p.cfg.Particles.Seed),
		int(p.cfg.Particles.Count),
		particle.SeedOptions{
			Radius: p.cfg.Particles.DiskRadius,
			Aspect: p.cfg.Aspect(),
			Speed:  p.cfg.Particles.Speed,
		},
	)

	width, height := p.window.FramebufferSize()

	r, err := renderer.New(renderer.Setup{
		Instance:            instance.Handle,
		GetInstanceProcAddr: getProcAddr,
		Device:              logical,
		Physical:            physical,
		Surface:             surface,
		Shader:              shader,
		Particles:           particles,
		Width:               width,
		Height:              height,
		Config:              p.cfg,
		Logger:              p.log.Named("renderer"),
	})
	if err != nil {
		return fmt.Errorf("createRenderer: %w", err)
	}
	p.renderer = r

	p.log.Info("vulkan ready",
		zap.String("device", physical.Capabilities.Name),
		zap.Uint32("particles", p.cfg.Particles.Count),
		zap.Int("frames_in_flight", p.cfg.Frames.InFlight),
		zap.Bool("validation", p.cfg.Vulkan.Validation),
	)

	return nil
}

func (p *ParticleApp) cleanVulkan() {
	if p.renderer != nil {
		p.renderer.Destroy()
		p.renderer = nil
	}
	if p.device != nil {
		p.device.Destroy()
		p.device = nil
	}
	if p.instance != nil {
		if p.surface != vk.NullSurface {
			p.instance.DestroySurface(p.surface)
			p.surface = vk.NullSurface
		}
		p.instance.Destroy()
		p.instance = nil
	}
}

func (p *ParticleApp) mainLoop(ctx context.Context) error {
	recorder, err := telemetry.NewRecorder(telemetry.Options{
		CSVPath: p.perfOut,
		Logger:  p.log.Named("telemetry"),
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			p.log.Warn("closing frame output", zap.Error(err))
		}
	}()

	opts := frame.OptionsFromConfig(p.cfg)
	opts.Logger = p.log.Named("frame")
	opts.Observer = recorder

	orchestrator, err := frame.New(p.renderer, p.window, opts)
	if err != nil {
		return err
	}

	stopWatching := p.window.WatchContext(ctx)
	defer stopWatching()

	err = orchestrator.Run(ctx)

	if p.cfg.Telemetry.Summary {
		recorder.LogSummary()
	}

	return err
}
