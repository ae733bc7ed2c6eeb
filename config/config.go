// Package config loads the renderer configuration.
//
// Defaults are embedded in the binary; a user supplied YAML file only needs to
// contain the keys it overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all renderer parameters. It is loaded once at startup and
// passed by value afterwards.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Particles ParticlesConfig `yaml:"particles"`
	Frames    FramesConfig    `yaml:"frames"`
	Retry     RetryConfig     `yaml:"retry"`
	Shader    ShaderConfig    `yaml:"shader"`
	Vulkan    VulkanConfig    `yaml:"vulkan"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WindowConfig holds the initial window settings.
type WindowConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	Resizable bool   `yaml:"resizable"`
}

// ParticlesConfig controls the particle field and how it is seeded.
type ParticlesConfig struct {
	Count         uint32  `yaml:"count"`
	WorkGroupSize uint32  `yaml:"work_group_size"` // must match the compute shader local size
	Seed          int64   `yaml:"seed"`
	DiskRadius    float32 `yaml:"disk_radius"`
	Speed         float32 `yaml:"speed"`
}

// FramesConfig controls the frame loop.
type FramesConfig struct {
	InFlight        int           `yaml:"in_flight"`
	DeltaScale      float32       `yaml:"delta_scale"`
	FenceTimeout    time.Duration `yaml:"fence_timeout"`
	TimelineTimeout time.Duration `yaml:"timeline_timeout"`
}

// RetryConfig bounds the wait loops. MaxRetries of 0 retries forever.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	Interval   time.Duration `yaml:"interval"`
}

// ShaderConfig locates the compiled SPIR-V module.
type ShaderConfig struct {
	Path string `yaml:"path"`
}

// VulkanConfig holds instance level switches.
type VulkanConfig struct {
	Validation bool `yaml:"validation"`
}

// TelemetryConfig controls the shutdown summary.
type TelemetryConfig struct {
	Summary bool `yaml:"summary"`
}

// Default returns the embedded defaults.
func Default() Config {
	cfg, err := parse(defaultsYAML, Config{})
	if err != nil {
		panic(fmt.Sprintf("parsing embedded defaults: %s", err))
	}
	return cfg
}

// Load returns the embedded defaults overridden by the file at path. An empty
// path returns the defaults. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}

		cfg, err = parse(data, cfg)
		if err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parse(data []byte, base Config) (Config, error) {
	// Unmarshal into a copy of base so only the keys present in data change.
	if err := yaml.Unmarshal(data, &base); err != nil {
		return Config{}, err
	}
	return base, nil
}

// Validate checks the invariants the renderer relies on.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Particles.Count == 0:
		return fmt.Errorf("%w: particle count must be positive", ErrInvalid)
	case c.Particles.WorkGroupSize == 0:
		return fmt.Errorf("%w: work group size must be positive", ErrInvalid)
	case c.Particles.Count%c.Particles.WorkGroupSize != 0:
		return fmt.Errorf(
			"%w: particle count %d is not divisible by work group size %d",
			ErrInvalid, c.Particles.Count, c.Particles.WorkGroupSize,
		)
	case c.Particles.DiskRadius <= 0 || c.Particles.DiskRadius > 1:
		return fmt.Errorf("%w: disk radius %g outside (0, 1]", ErrInvalid, c.Particles.DiskRadius)
	case c.Particles.Speed < 0:
		return fmt.Errorf("%w: negative particle speed", ErrInvalid)
	case c.Frames.InFlight < 2:
		return fmt.Errorf("%w: frames in flight must be at least 2, got %d",
			ErrInvalid, c.Frames.InFlight)
	case c.Frames.FenceTimeout <= 0 || c.Frames.TimelineTimeout <= 0:
		return fmt.Errorf("%w: wait timeouts must be positive", ErrInvalid)
	case c.Retry.MaxRetries < 0 || c.Retry.Interval < 0:
		return fmt.Errorf("%w: negative retry settings", ErrInvalid)
	case c.Shader.Path == "":
		return fmt.Errorf("%w: shader path is empty", ErrInvalid)
	}

	return nil
}

// DispatchGroups is the number of compute work groups needed to cover every
// particle once.
func (c Config) DispatchGroups() uint32 {
	return c.Particles.Count / c.Particles.WorkGroupSize
}

// Aspect is the height over width ratio of the initial window, used to keep
// the seeding disk round on screen.
func (c Config) Aspect() float32 {
	return float32(c.Window.Height) / float32(c.Window.Width)
}
