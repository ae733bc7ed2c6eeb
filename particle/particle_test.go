package particle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlab/linmath"
)

func TestLayout(t *testing.T) {
	assert.Equal(t, uint32(32), Size)
	assert.Equal(t, uint32(0), PositionOffset)
	assert.Equal(t, uint32(16), ColorOffset)
}

func TestSeedDeterministic(t *testing.T) {
	opts := SeedOptions{Radius: 0.25, Aspect: 600.0 / 800.0, Speed: 0.00025}

	a := Seed(NewRand(7), 1024, opts)
	b := Seed(NewRand(7), 1024, opts)
	require.Equal(t, a, b, "same seed must give bit-identical particles")

	c := Seed(NewRand(8), 1024, opts)
	assert.NotEqual(t, a, c)
}

func TestSeedDisk(t *testing.T) {
	opts := SeedOptions{Radius: 0.25, Aspect: 600.0 / 800.0, Speed: 0.00025}

	for i, p := range Seed(NewRand(1), 4096, opts) {
		// Undo the aspect correction to get back to the disk.
		x := float64(p.Position[0] / opts.Aspect)
		y := float64(p.Position[1])
		assert.LessOrEqual(t, math.Hypot(x, y), 0.25+1e-6, "particle %d", i)

		speed := math.Hypot(float64(p.Velocity[0]), float64(p.Velocity[1]))
		if p.Position != (linmath.Vec2{}) {
			assert.InDelta(t, 0.00025, speed, 1e-7, "particle %d", i)
		}

		assert.Equal(t, float32(1), p.Color[3])
		for c := 0; c < 3; c++ {
			assert.GreaterOrEqual(t, p.Color[c], float32(0))
			assert.LessOrEqual(t, p.Color[c], float32(1))
		}
	}
}

func TestSeedZeroSpeed(t *testing.T) {
	for _, p := range Seed(NewRand(3), 16, SeedOptions{Radius: 0.25, Aspect: 1}) {
		assert.Equal(t, linmath.Vec2{}, p.Velocity)
	}
}

func TestStep(t *testing.T) {
	in := []Particle{
		{Position: linmath.Vec2{0, 0}, Velocity: linmath.Vec2{0.1, -0.2}, Color: linmath.Vec4{1, 0, 0, 1}},
		{Position: linmath.Vec2{0.98, 0}, Velocity: linmath.Vec2{0.1, 0}, Color: linmath.Vec4{0, 1, 0, 1}},
		{Position: linmath.Vec2{0, -0.98}, Velocity: linmath.Vec2{0, -0.1}, Color: linmath.Vec4{0, 0, 1, 1}},
	}
	out := make([]Particle, len(in))

	Step(in, out, 0.5)

	assert.InDelta(t, 0.05, out[0].Position[0], 1e-6)
	assert.InDelta(t, -0.1, out[0].Position[1], 1e-6)
	assert.Equal(t, in[0].Velocity, out[0].Velocity)
	assert.Equal(t, in[0].Color, out[0].Color)

	assert.InDelta(t, 1.03, out[1].Position[0], 1e-6)
	assert.Equal(t, float32(-0.1), out[1].Velocity[0], "bounces off the right border")

	assert.InDelta(t, -1.03, out[2].Position[1], 1e-6)
	assert.Equal(t, float32(0.1), out[2].Velocity[1], "bounces off the bottom border")
}

func TestStepZeroDelta(t *testing.T) {
	in := Seed(NewRand(11), 64, SeedOptions{Radius: 0.25, Aspect: 1, Speed: 0.01})
	out := make([]Particle, len(in))

	Step(in, out, 0)
	assert.Equal(t, in, out)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, linmath.Vec2{}, direction(linmath.Vec2{}))

	dir := direction(linmath.Vec2{3, -4})
	assert.InDelta(t, 0.6, dir[0], 1e-6)
	assert.InDelta(t, -0.8, dir[1], 1e-6)
	assert.InDelta(t, 1, dir.Len(), 1e-6)
}
