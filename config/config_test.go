package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, uint32(8192), cfg.Particles.Count)
	assert.Equal(t, uint32(256), cfg.Particles.WorkGroupSize)
	assert.Equal(t, 2, cfg.Frames.InFlight)
	assert.Equal(t, 100*time.Millisecond, cfg.Frames.FenceTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Frames.TimelineTimeout)
	assert.InDelta(t, 0.25, cfg.Particles.DiskRadius, 1e-6)
	assert.InDelta(t, 0.00025, cfg.Particles.Speed, 1e-9)
	assert.Equal(t, "shaders/particle.spv", cfg.Shader.Path)
	assert.InDelta(t, 0.75, cfg.Aspect(), 1e-6)
}

func TestDispatchGroups(t *testing.T) {
	cfg := Default()
	assert.Equal(t, uint32(32), cfg.DispatchGroups())
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	data := []byte("particles:\n  count: 4096\nframes:\n  in_flight: 3\n  fence_timeout: 5ms\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(4096), cfg.Particles.Count)
	assert.Equal(t, uint32(16), cfg.DispatchGroups())
	assert.Equal(t, 3, cfg.Frames.InFlight)
	assert.Equal(t, 5*time.Millisecond, cfg.Frames.FenceTimeout)
	assert.Equal(t, 800, cfg.Window.Width, "keys absent from the file keep their defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"count not divisible", func(c *Config) { c.Particles.Count = 8200 }},
		{"zero count", func(c *Config) { c.Particles.Count = 0 }},
		{"zero work group", func(c *Config) { c.Particles.WorkGroupSize = 0 }},
		{"single frame in flight", func(c *Config) { c.Frames.InFlight = 1 }},
		{"zero fence timeout", func(c *Config) { c.Frames.FenceTimeout = 0 }},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }},
		{"empty shader path", func(c *Config) { c.Shader.Path = "" }},
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"radius too big", func(c *Config) { c.Particles.DiskRadius = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidateSmallField(t *testing.T) {
	cfg := Default()
	cfg.Particles.Count = 4
	cfg.Particles.WorkGroupSize = 4
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(1), cfg.DispatchGroups())
}
